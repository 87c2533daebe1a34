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

package jobs

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"dataproc-toolkit/pkg/config"

	dataproc "google.golang.org/api/dataproc/v1"
)

// Fixed artifacts of the bootstrap-script convention.
const (
	ScriptRunnerJar       = "script-runner.jar"
	ScriptRunnerMainClass = "com.amazon.elasticmapreduce.scriptrunner.ScriptRunner"
	BootstrapScript       = "airflow_gcp.sh"
)

// ScriptRunner is the bootstrap-script job adapter. It never submits the
// target script itself: it submits script-runner.jar, whose entrypoint runs
// the bootstrap shell script, which in turn fetches and runs the script URI
// with the flattened environment and arguments.
type ScriptRunner struct {
	ArtifactBucket  string
	Jar             string
	MainClass       string
	BootstrapScript string
}

// NewScriptRunner returns the adapter for the artifacts in bucket.
func NewScriptRunner(bucket string) ScriptRunner {
	return ScriptRunner{
		ArtifactBucket:  bucket,
		Jar:             ScriptRunnerJar,
		MainClass:       ScriptRunnerMainClass,
		BootstrapScript: BootstrapScript,
	}
}

func (r ScriptRunner) TaskID() string { return ScriptTaskID }

// JarURI is gs://<bucket>/bin/<jar>.
func (r ScriptRunner) JarURI() string {
	return fmt.Sprintf("gs://%s/bin/%s", r.ArtifactBucket, r.Jar)
}

// BootstrapURI is gs://<bucket>/bootstrap/<script>.
func (r ScriptRunner) BootstrapURI() string {
	return fmt.Sprintf("gs://%s/bootstrap/%s", r.ArtifactBucket, r.BootstrapScript)
}

// Args assembles the entrypoint arguments. --arguments is only passed when
// the job has a non-empty argument string.
func (r ScriptRunner) Args(jobName string, job ScriptJob) []string {
	args := []string{
		r.BootstrapURI(),
		"--job-name", jobName,
		"--uri", job.ScriptURI,
		"--environment", FormatEnv(job.Env),
	}
	if job.Arguments != "" {
		args = append(args, "--arguments", job.Arguments)
	}
	return args
}

func (r ScriptRunner) Job(clusterName, jobName string, spec Spec) (*dataproc.Job, error) {
	s := spec.Script
	if err := config.Require("job_name", jobName, "uri", s.ScriptURI, "cluster_name", clusterName); err != nil {
		return nil, err
	}
	if err := config.Require("artifact_bucket", r.ArtifactBucket); err != nil {
		return nil, err
	}
	return &dataproc.Job{
		SparkJob: &dataproc.SparkJob{
			JarFileUris: []string{r.JarURI()},
			MainClass:   r.MainClass,
			Args:        r.Args(jobName, *s),
		},
	}, nil
}

// FormatEnv flattens env into "k1=v1 k2=v2". Keys are sorted so the result
// does not depend on map iteration order.
func FormatEnv(env map[string]string) string {
	entries := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		entries = append(entries, k+"="+env[k])
	}
	return strings.Join(entries, " ")
}
