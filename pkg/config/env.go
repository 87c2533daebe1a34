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

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by LoadEnv.
const EnvPrefix = "DATAPROC"

// Env holds site-wide defaults that are usually identical for every run
// and therefore live in the environment rather than on the command line.
// Empty fields leave the built-in defaults untouched.
type Env struct {
	ArtifactBucket string `envconfig:"ARTIFACT_BUCKET"`
	StorageBucket  string `envconfig:"STORAGE_BUCKET"`
	GCPConnID      string `envconfig:"GCP_CONN_ID"`
	AWSConnID      string `envconfig:"AWS_CONN_ID"`
	Project        string `envconfig:"PROJECT"`
	ServiceAccount string `envconfig:"SERVICE_ACCOUNT"`
	Verbose        bool   `envconfig:"VERBOSE" default:"false"`
}

// LoadEnv reads DATAPROC_* variables, first loading any of the given dotenv
// files that exist. Variables already set in the process win over dotenv values.
func LoadEnv(dotenvFiles ...string) (*Env, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return &env, nil
}
