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

// Package workflow assembles the create -> run -> delete chain that runs one
// job on a transient cluster.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"dataproc-toolkit/pkg/cluster"
	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/jobs"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/task"
)

// Default workflow names, used when Request.Name is empty.
const (
	DefaultPythonName = "run_pyspark_on_dataproc"
	DefaultJarName    = "run_script_on_dataproc"
	DefaultScriptName = "run_script_on_dataproc"
)

// Workflow is an immutable chain of tasks: create, run, delete.
type Workflow struct {
	name  string
	tasks []task.Descriptor
}

// Name is "<parent>.<name>".
func (w *Workflow) Name() string { return w.name }

// Tasks returns the tasks in execution order.
func (w *Workflow) Tasks() []task.Descriptor { return slices.Clone(w.tasks) }

func (w *Workflow) Create() task.Descriptor { return w.tasks[0] }
func (w *Workflow) Run() task.Descriptor    { return w.tasks[1] }
func (w *Workflow) Delete() task.Descriptor { return w.tasks[2] }

// Validate checks the chain: three tasks of kinds create, submit, delete,
// each depending only on its left neighbour, all on the same cluster.
func (w *Workflow) Validate() error {
	kinds := []task.Kind{task.CreateCluster, task.SubmitJob, task.DeleteCluster}
	if len(w.tasks) != len(kinds) {
		return fmt.Errorf("workflow %s: expected %d tasks, got %d", w.name, len(kinds), len(w.tasks))
	}
	for i, t := range w.tasks {
		if t.Kind() != kinds[i] {
			return fmt.Errorf("workflow %s: task %d (%s) is %s, want %s", w.name, i, t.ID(), t.Kind(), kinds[i])
		}
		var want []string
		if i > 0 {
			want = []string{w.tasks[i-1].ID()}
		}
		if up := t.Upstream(); !slices.Equal(up, want) {
			return fmt.Errorf("workflow %s: task %s depends on %v, want %v", w.name, t.ID(), up, want)
		}
		if t.ClusterName() != w.tasks[0].ClusterName() {
			return fmt.Errorf("workflow %s: task %s targets cluster %s, want %s", w.name, t.ID(), t.ClusterName(), w.tasks[0].ClusterName())
		}
	}
	return nil
}

// MarshalJSON renders the workflow for manifests.
func (w *Workflow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string            `json:"name"`
		Tasks []task.Descriptor `json:"tasks"`
	}{w.name, w.tasks})
}

// Request describes one workflow to assemble.
type Request struct {
	// ParentName is the name of the enclosing workflow.
	ParentName string
	// Name defaults per job kind, see DefaultPythonName and friends.
	Name    string
	Cluster cluster.Config
	JobName string
	Job     jobs.Spec
}

// Assembler builds workflows. The zero value cannot resolve S3 credentials.
type Assembler struct {
	Lifecycle *cluster.Lifecycle
	// NewJobs returns the job builder for an artifact bucket; nil means jobs.NewBuilder.
	NewJobs func(artifactBucket string) *jobs.Builder
}

// NewAssembler returns an Assembler resolving S3 credentials through p.
func NewAssembler(p credentials.Provider) *Assembler {
	return &Assembler{Lifecycle: cluster.NewLifecycle(p)}
}

// Check reports the first configuration error in req without any external
// call. Build performs the same checks.
func (a *Assembler) Check(req Request) error {
	_, err := a.prepare(req)
	return err
}

// plan is a request that passed every configuration check.
type plan struct {
	name     string
	cfg      cluster.Config
	run, del task.Descriptor
}

func (a *Assembler) prepare(req Request) (*plan, error) {
	if err := config.Require("parent_name", req.ParentName); err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = defaultName(req.Job.Kind)
	}
	cfg := req.Cluster
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	region, _ := cfg.Region()

	newJobs := a.NewJobs
	if newJobs == nil {
		newJobs = jobs.NewBuilder
	}
	run, err := newJobs(cfg.ArtifactBucket).BuildJobTask(jobs.Request{
		ClusterName: cfg.Name,
		JobName:     req.JobName,
		ProjectID:   cfg.ProjectID,
		Region:      region,
		ConnID:      cfg.GCPConnID,
		Spec:        req.Job,
	})
	if err != nil {
		return nil, err
	}
	del, err := a.lifecycle().DeleteTask(cfg)
	if err != nil {
		return nil, err
	}
	return &plan{name: fmt.Sprintf("%s.%s", req.ParentName, name), cfg: cfg, run: run, del: del}, nil
}

func (a *Assembler) lifecycle() *cluster.Lifecycle {
	if a.Lifecycle == nil {
		return &cluster.Lifecycle{}
	}
	return a.Lifecycle
}

// Build validates req and returns a fresh workflow. Every configuration
// error is reported before the credential lookup; nothing partial is returned.
func (a *Assembler) Build(ctx context.Context, req Request) (*Workflow, error) {
	p, err := a.prepare(req)
	if err != nil {
		return nil, err
	}
	p.cfg.WarnUnknownComponents()
	create, err := a.lifecycle().CreateTask(ctx, p.cfg)
	if err != nil {
		return nil, err
	}

	run := p.run.After(create)
	del := p.del.After(run)
	w := &Workflow{
		name:  p.name,
		tasks: []task.Descriptor{create, run, del},
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	logging.Info("Assembled workflow '%s': %s >> %s >> %s on cluster '%s'", w.name, create.ID(), run.ID(), del.ID(), p.cfg.Name)
	return w, nil
}

// RunPython creates a cluster, runs a PySpark driver on it and tears it down.
func (a *Assembler) RunPython(ctx context.Context, parent, name string, cfg cluster.Config, jobName string, job jobs.PythonJob) (*Workflow, error) {
	return a.Build(ctx, Request{
		ParentName: parent, Name: name, Cluster: cfg, JobName: jobName,
		Job: jobs.Python(job.DriverURI, job.Args...),
	})
}

// RunJar creates a cluster, runs a jar main class on it and tears it down.
func (a *Assembler) RunJar(ctx context.Context, parent, name string, cfg cluster.Config, jobName string, job jobs.JarJob) (*Workflow, error) {
	return a.Build(ctx, Request{
		ParentName: parent, Name: name, Cluster: cfg, JobName: jobName,
		Job: jobs.Jar(job.JarURIs, job.MainClass, job.Args...),
	})
}

// RunScript creates a cluster, runs a script through the bootstrap-script
// adapter and tears the cluster down.
func (a *Assembler) RunScript(ctx context.Context, parent, name string, cfg cluster.Config, jobName string, job jobs.ScriptJob) (*Workflow, error) {
	return a.Build(ctx, Request{
		ParentName: parent, Name: name, Cluster: cfg, JobName: jobName,
		Job: jobs.Script(job.ScriptURI, job.Env, job.Arguments),
	})
}

func defaultName(kind jobs.Kind) string {
	switch kind {
	case jobs.KindPython:
		return DefaultPythonName
	case jobs.KindJar:
		return DefaultJarName
	default:
		return DefaultScriptName
	}
}
