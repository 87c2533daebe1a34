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

package run

import (
	"context"
	"errors"
	"testing"

	"dataproc-toolkit/pkg/cluster"
	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/jobs"
	"dataproc-toolkit/pkg/orchestrator"
	"dataproc-toolkit/pkg/workflow"

	"golang.org/x/oauth2/google"
)

type recordingOrchestrator struct {
	workflows []*workflow.Workflow
	opts      []orchestrator.SubmitOptions
	err       error
}

func (r *recordingOrchestrator) Submit(_ context.Context, w *workflow.Workflow, opts orchestrator.SubmitOptions) error {
	r.workflows = append(r.workflows, w)
	r.opts = append(r.opts, opts)
	return r.err
}

func baseOptions() RunOptions {
	cfg := cluster.DefaultConfig()
	cfg.Name = "test-dataproc-cluster"
	cfg.ProjectID = "proj"
	return RunOptions{
		ParentName: "my_dag",
		Cluster:    cfg,
		Job:        jobs.Jar([]string{"gs://b/job.jar"}, "com.example.Main", "-d", "20200101"),
	}
}

func TestExecuteRunSubmits(t *testing.T) {
	o := &recordingOrchestrator{}
	if err := ExecuteRun(context.Background(), baseOptions(), credentials.StaticProvider{}, o); err != nil {
		t.Fatalf("ExecuteRun() error = %v", err)
	}
	if len(o.workflows) != 1 {
		t.Fatalf("Submit called %d times, want 1", len(o.workflows))
	}
	w := o.workflows[0]
	if got, want := w.Name(), "my_dag.run_script_on_dataproc"; got != want {
		t.Errorf("workflow name = %q, want %q", got, want)
	}
	if got := o.opts[0].ProjectID; got != "proj" {
		t.Errorf("SubmitOptions.ProjectID = %q, want proj", got)
	}
}

func TestExecuteRunConfigurationError(t *testing.T) {
	opts := baseOptions()
	opts.Cluster.Name = ""
	o := &recordingOrchestrator{}
	err := ExecuteRun(context.Background(), opts, credentials.StaticProvider{}, o)
	if !config.IsConfigurationError(err) {
		t.Fatalf("ExecuteRun() error = %v, want ConfigurationError", err)
	}
	if len(o.workflows) != 0 {
		t.Errorf("Submit called after a configuration error")
	}
}

func TestExecuteRunConfigurationErrorBeforeProjectLookup(t *testing.T) {
	orig := credentials.FindDefault
	t.Cleanup(func() { credentials.FindDefault = orig })
	lookups := 0
	credentials.FindDefault = func(context.Context, ...string) (*google.Credentials, error) {
		lookups++
		return nil, errors.New("no application default credentials")
	}

	tests := []struct {
		name   string
		mutate func(*RunOptions)
	}{
		{"missing cluster name", func(o *RunOptions) { o.Cluster.Name = "" }},
		{"missing parent", func(o *RunOptions) { o.ParentName = "" }},
		{"missing driver", func(o *RunOptions) { o.Job = jobs.Python("") }},
		{"missing main class", func(o *RunOptions) { o.Job = jobs.Jar([]string{"gs://b/job.jar"}, "") }},
		{"missing script job name", func(o *RunOptions) { o.Job = jobs.Script("gs://b/s.sh", nil, "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookups = 0
			opts := baseOptions()
			opts.Cluster.ProjectID = ""
			tt.mutate(&opts)
			o := &recordingOrchestrator{}

			err := ExecuteRun(context.Background(), opts, credentials.StaticProvider{}, o)
			if !config.IsConfigurationError(err) {
				t.Fatalf("ExecuteRun() error = %v, want ConfigurationError", err)
			}
			if lookups != 0 {
				t.Errorf("project looked up %d times before the configuration error", lookups)
			}
			if len(o.workflows) != 0 {
				t.Errorf("Submit called after a configuration error")
			}
		})
	}
}

func TestExecuteRunWrapsSubmitError(t *testing.T) {
	boom := errors.New("boom")
	o := &recordingOrchestrator{err: boom}
	err := ExecuteRun(context.Background(), baseOptions(), credentials.StaticProvider{}, o)
	if !errors.Is(err, boom) {
		t.Fatalf("ExecuteRun() error = %v, want wrapped %v", err, boom)
	}
}

func TestExecuteRunManifestSkipsProjectLookup(t *testing.T) {
	orig := credentials.FindDefault
	t.Cleanup(func() { credentials.FindDefault = orig })
	credentials.FindDefault = func(context.Context, ...string) (*google.Credentials, error) {
		t.Fatal("project lookup in manifest mode")
		return nil, nil
	}

	opts := baseOptions()
	opts.Cluster.ProjectID = ""
	opts.OutputManifest = "/tmp/wf.yaml"
	o := &recordingOrchestrator{}
	if err := ExecuteRun(context.Background(), opts, credentials.StaticProvider{}, o); err != nil {
		t.Fatalf("ExecuteRun() error = %v", err)
	}
	if got := o.opts[0].OutputManifest; got != "/tmp/wf.yaml" {
		t.Errorf("OutputManifest = %q", got)
	}
}

func TestExecuteRunResolvesProject(t *testing.T) {
	orig := credentials.FindDefault
	t.Cleanup(func() { credentials.FindDefault = orig })
	credentials.FindDefault = func(context.Context, ...string) (*google.Credentials, error) {
		return &google.Credentials{ProjectID: "adc-project"}, nil
	}

	opts := baseOptions()
	opts.Cluster.ProjectID = ""
	o := &recordingOrchestrator{}
	if err := ExecuteRun(context.Background(), opts, credentials.StaticProvider{}, o); err != nil {
		t.Fatalf("ExecuteRun() error = %v", err)
	}
	if got := o.workflows[0].Create().ProjectID(); got != "adc-project" {
		t.Errorf("create task project = %q, want adc-project", got)
	}
}
