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

// Package config holds the toolkit's configuration error type and the
// environment-driven defaults read by the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports required fields that are missing or hold an
// unusable value. It is returned at build time, before any external call.
type ConfigurationError struct {
	Fields []string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %s", strings.Join(e.Fields, ", "), e.Reason)
}

// Missing returns a ConfigurationError for required fields left empty.
func Missing(fields ...string) error {
	return &ConfigurationError{Fields: fields, Reason: "must be specified"}
}

// Invalid returns a ConfigurationError for a single field with a bad value.
func Invalid(field string, format string, a ...any) error {
	return &ConfigurationError{Fields: []string{field}, Reason: fmt.Sprintf(format, a...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// Require collects the names whose values are empty, in the order given, and
// returns a single ConfigurationError naming all of them.
func Require(pairs ...string) error {
	if len(pairs)%2 != 0 {
		panic("config.Require expects name/value pairs")
	}
	var missing []string
	for i := 0; i < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return Missing(missing...)
}
