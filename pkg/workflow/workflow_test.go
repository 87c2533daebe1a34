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

package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dataproc-toolkit/pkg/cluster"
	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/jobs"
	"dataproc-toolkit/pkg/task"

	"github.com/google/go-cmp/cmp"
)

func testConfig() cluster.Config {
	c := cluster.DefaultConfig()
	c.Name = "test-dataproc-cluster"
	c.ProjectID = "airflow-dataproc"
	return c
}

// countingProvider records how often credentials were fetched.
type countingProvider struct {
	calls int
	creds credentials.Credentials
	err   error
}

func (p *countingProvider) Retrieve(context.Context, string) (credentials.Credentials, error) {
	p.calls++
	return p.creds, p.err
}

func buildAll(t *testing.T, a *Assembler) map[jobs.Kind]*Workflow {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	py, err := a.RunPython(ctx, "parent", "", cfg, "pyjob", jobs.PythonJob{DriverURI: "gs://b/main.py", Args: []string{"-d", "1"}})
	if err != nil {
		t.Fatalf("RunPython() error = %v", err)
	}
	jar, err := a.RunJar(ctx, "parent", "", cfg, "jarjob", jobs.JarJob{JarURIs: []string{"gs://b/x.jar"}, MainClass: "com.example.Main"})
	if err != nil {
		t.Fatalf("RunJar() error = %v", err)
	}
	script, err := a.RunScript(ctx, "parent", "", cfg, "J", jobs.ScriptJob{ScriptURI: "gs://b/s.py", Env: map[string]string{"k": "v"}, Arguments: "-d 1"})
	if err != nil {
		t.Fatalf("RunScript() error = %v", err)
	}
	return map[jobs.Kind]*Workflow{jobs.KindPython: py, jobs.KindJar: jar, jobs.KindScript: script}
}

func TestChainOrderingForEveryKind(t *testing.T) {
	wantRun := map[jobs.Kind]string{
		jobs.KindPython: jobs.PythonTaskID,
		jobs.KindJar:    jobs.JarTaskID,
		jobs.KindScript: jobs.ScriptTaskID,
	}
	wantName := map[jobs.Kind]string{
		jobs.KindPython: "parent.run_pyspark_on_dataproc",
		jobs.KindJar:    "parent.run_script_on_dataproc",
		jobs.KindScript: "parent.run_script_on_dataproc",
	}

	for kind, w := range buildAll(t, NewAssembler(nil)) {
		t.Run(string(kind), func(t *testing.T) {
			if w.Name() != wantName[kind] {
				t.Errorf("Name() = %q, want %q", w.Name(), wantName[kind])
			}
			tasks := w.Tasks()
			if len(tasks) != 3 {
				t.Fatalf("got %d tasks, want 3", len(tasks))
			}
			create, run, del := tasks[0], tasks[1], tasks[2]

			gotIDs := []string{create.ID(), run.ID(), del.ID()}
			wantIDs := []string{cluster.CreateTaskID, wantRun[kind], cluster.DeleteTaskID}
			if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
				t.Errorf("task ids mismatch (-want +got):\n%s", diff)
			}
			if up := create.Upstream(); len(up) != 0 {
				t.Errorf("create upstream = %v, want none", up)
			}
			if diff := cmp.Diff([]string{create.ID()}, run.Upstream()); diff != "" {
				t.Errorf("run upstream mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{run.ID()}, del.Upstream()); diff != "" {
				t.Errorf("delete upstream mismatch (-want +got):\n%s", diff)
			}
			for _, d := range tasks {
				if d.ClusterName() != "test-dataproc-cluster" || d.Region() != "us-west1" || d.ProjectID() != "airflow-dataproc" {
					t.Errorf("task %s: cluster=%q region=%q project=%q", d.ID(), d.ClusterName(), d.Region(), d.ProjectID())
				}
			}
			if err := w.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestScriptWorkflowArgs(t *testing.T) {
	w := buildAll(t, NewAssembler(nil))[jobs.KindScript]
	want := []string{
		"gs://moz-fx-data-prod-airflow-dataproc-artifacts/bootstrap/airflow_gcp.sh",
		"--job-name", "J",
		"--uri", "gs://b/s.py",
		"--environment", "k=v",
		"--arguments", "-d 1",
	}
	if diff := cmp.Diff(want, w.Run().Job().SparkJob.Args); diff != "" {
		t.Errorf("script-runner args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTwiceIsEqualButIndependent(t *testing.T) {
	a := NewAssembler(nil)
	first := buildAll(t, a)[jobs.KindScript]
	second := buildAll(t, a)[jobs.KindScript]

	if first == second {
		t.Fatalf("Build returned the same *Workflow twice")
	}
	if diff := cmp.Diff(first, second, cmp.AllowUnexported(Workflow{}, task.Descriptor{})); diff != "" {
		t.Errorf("workflows differ (-first +second):\n%s", diff)
	}

	// Mutating everything reachable from the first must leave the second intact.
	first.Tasks()[0] = task.Descriptor{}
	first.Run().Job().SparkJob.Args[0] = "gs://evil/bootstrap.sh"
	first.Create().Cluster().Config.SoftwareConfig.OptionalComponents[0] = "DOCKER"

	if got := second.Run().Job().SparkJob.Args[0]; got != "gs://moz-fx-data-prod-airflow-dataproc-artifacts/bootstrap/airflow_gcp.sh" {
		t.Errorf("second workflow changed: args[0] = %q", got)
	}
	if got := first.Run().Job().SparkJob.Args[0]; got == "gs://evil/bootstrap.sh" {
		t.Errorf("workflow exposes its job payload for mutation")
	}
	if got := first.Tasks()[0].ID(); got != cluster.CreateTaskID {
		t.Errorf("Tasks() exposes the internal slice, first task is %q", got)
	}
}

func TestBuildFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing parent", func(r *Request) { r.ParentName = "" }},
		{"missing cluster name", func(r *Request) { r.Cluster.Name = "" }},
		{"missing artifact bucket", func(r *Request) { r.Cluster.ArtifactBucket = "" }},
		{"missing job name", func(r *Request) { r.JobName = "" }},
		{"missing uri", func(r *Request) { r.Job = jobs.Script("", nil, "") }},
		{"missing driver", func(r *Request) { r.Job = jobs.Python("") }},
		{"missing main class", func(r *Request) { r.Job = jobs.Jar([]string{"gs://b/x.jar"}, "") }},
		{"missing jars", func(r *Request) { r.Job = jobs.Jar(nil, "com.example.Main") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProvider{creds: credentials.Credentials{AccessKey: "a", SecretKey: "s"}}
			req := Request{
				ParentName: "parent",
				Cluster:    testConfig(),
				JobName:    "J",
				Job:        jobs.Script("gs://b/s.py", nil, ""),
			}
			req.Cluster.AWSConnID = "aws://telemetry"
			tt.mutate(&req)

			a := NewAssembler(p)
			if err := a.Check(req); !config.IsConfigurationError(err) {
				t.Fatalf("Check() error = %v, want ConfigurationError", err)
			}
			w, err := a.Build(context.Background(), req)
			if !config.IsConfigurationError(err) {
				t.Fatalf("Build() error = %v, want ConfigurationError", err)
			}
			if w != nil {
				t.Errorf("Build() returned a partial workflow")
			}
			if p.calls != 0 {
				t.Errorf("credentials fetched %d times before failing", p.calls)
			}
		})
	}
}

func TestCheckMakesNoCredentialCalls(t *testing.T) {
	p := &countingProvider{creds: credentials.Credentials{AccessKey: "a", SecretKey: "s"}}
	cfg := testConfig()
	cfg.AWSConnID = "aws://telemetry"
	req := Request{ParentName: "parent", Cluster: cfg, JobName: "J", Job: jobs.Script("gs://b/s.py", nil, "")}

	if err := NewAssembler(p).Check(req); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if p.calls != 0 {
		t.Errorf("Check() fetched credentials %d times", p.calls)
	}
}

func TestBuildInjectsCredentialsOnce(t *testing.T) {
	p := &countingProvider{creds: credentials.Credentials{AccessKey: "AKIA", SecretKey: "secret"}}
	cfg := testConfig()
	cfg.AWSConnID = "aws://telemetry"

	w, err := NewAssembler(p).RunPython(context.Background(), "parent", "child", cfg, "", jobs.PythonJob{DriverURI: "gs://b/main.py"})
	if err != nil {
		t.Fatalf("RunPython() error = %v", err)
	}
	if p.calls != 1 {
		t.Errorf("credentials fetched %d times, want 1", p.calls)
	}
	want := map[string]string{
		"core:fs.s3a.access.key": "AKIA",
		"core:fs.s3a.secret.key": "secret",
	}
	if diff := cmp.Diff(want, w.Create().Cluster().Config.SoftwareConfig.Properties); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
	if w.Name() != "parent.child" {
		t.Errorf("Name() = %q, want parent.child", w.Name())
	}
}

func TestBuildCredentialLookupError(t *testing.T) {
	p := &countingProvider{err: errors.New("access denied")}
	cfg := testConfig()
	cfg.AWSConnID = "aws://telemetry"

	w, err := NewAssembler(p).RunJar(context.Background(), "parent", "", cfg, "", jobs.JarJob{JarURIs: []string{"gs://b/x.jar"}, MainClass: "Main"})
	var le *credentials.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("RunJar() error = %v, want *credentials.LookupError", err)
	}
	if w != nil {
		t.Errorf("RunJar() returned a partial workflow")
	}
}

func TestMarshalJSON(t *testing.T) {
	w := buildAll(t, NewAssembler(nil))[jobs.KindPython]
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out struct {
		Name  string
		Tasks []struct {
			ID       string
			Kind     string
			Upstream []string
		}
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Name != "parent.run_pyspark_on_dataproc" || len(out.Tasks) != 3 {
		t.Fatalf("unexpected rendering: %s", b)
	}
	if out.Tasks[2].Kind != "delete_cluster" || out.Tasks[2].Upstream[0] != jobs.PythonTaskID {
		t.Errorf("unexpected delete task: %+v", out.Tasks[2])
	}
}
