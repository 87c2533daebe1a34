// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jobs turns a job description into the submit-job task that runs
// it on a named cluster.
package jobs

import (
	"fmt"
	"maps"
	"slices"
)

// Kind selects which variant of a Spec is populated.
type Kind string

const (
	KindPython Kind = "python"
	KindJar    Kind = "jar"
	KindScript Kind = "script"
)

// PythonJob runs a PySpark driver.
type PythonJob struct {
	// DriverURI is the HCFS URI of the main .py file.
	DriverURI string
	Args      []string
}

// JarJob runs a main class from one or more jars.
type JarJob struct {
	JarURIs   []string
	MainClass string
	Args      []string
}

// ScriptJob runs an arbitrary script (bash, python, ...) fetched from an
// http(s) or gs:// URI through the bootstrap script.
type ScriptJob struct {
	ScriptURI string
	Env       map[string]string
	// Arguments is passed through as one space separated string.
	Arguments string
}

// Spec is a tagged variant: exactly the field matching Kind is set.
type Spec struct {
	Kind   Kind
	Python *PythonJob
	Jar    *JarJob
	Script *ScriptJob
}

// Python returns a PySpark job spec.
func Python(driverURI string, args ...string) Spec {
	return Spec{Kind: KindPython, Python: &PythonJob{DriverURI: driverURI, Args: slices.Clone(args)}}
}

// Jar returns a jar job spec.
func Jar(jarURIs []string, mainClass string, args ...string) Spec {
	return Spec{Kind: KindJar, Jar: &JarJob{JarURIs: slices.Clone(jarURIs), MainClass: mainClass, Args: slices.Clone(args)}}
}

// Script returns a script job spec.
func Script(scriptURI string, env map[string]string, arguments string) Spec {
	return Spec{Kind: KindScript, Script: &ScriptJob{ScriptURI: scriptURI, Env: maps.Clone(env), Arguments: arguments}}
}

// variant checks that Kind names the one populated field.
func (s Spec) variant() error {
	set := 0
	for _, ok := range []bool{s.Python != nil, s.Jar != nil, s.Script != nil} {
		if ok {
			set++
		}
	}
	populated := map[Kind]bool{KindPython: s.Python != nil, KindJar: s.Jar != nil, KindScript: s.Script != nil}
	if set != 1 || !populated[s.Kind] {
		return fmt.Errorf("job spec of kind %q must populate exactly its own variant", s.Kind)
	}
	return nil
}
