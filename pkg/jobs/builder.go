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
	"slices"

	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/task"

	dataproc "google.golang.org/api/dataproc/v1"
)

// Task ids of the submit-job step, one per kind.
const (
	PythonTaskID = "run_dataproc_pyspark"
	JarTaskID    = "run_jar_on_dataproc"
	ScriptTaskID = "run_script_on_dataproc"
)

// Strategy turns one kind of Spec into a Dataproc job.
type Strategy interface {
	// TaskID is the id of the task the strategy produces.
	TaskID() string
	// Job validates the inputs and builds the job payload.
	Job(clusterName, jobName string, spec Spec) (*dataproc.Job, error)
}

// Request is the input of BuildJobTask.
type Request struct {
	ClusterName string
	// JobName defaults to the task id for python and jar jobs.
	JobName   string
	ProjectID string
	Region    string
	ConnID    string
	Spec      Spec
}

// Builder dispatches a Spec to the strategy registered for its kind.
type Builder struct {
	strategies map[Kind]Strategy
}

// NewBuilder returns a Builder with the direct PySpark and jar strategies
// and the bootstrap-script adapter reading artifacts from artifactBucket.
func NewBuilder(artifactBucket string) *Builder {
	return &Builder{strategies: map[Kind]Strategy{
		KindPython: PySpark{},
		KindJar:    SparkJar{},
		KindScript: NewScriptRunner(artifactBucket),
	}}
}

// With returns a copy of b using s for kind.
func (b *Builder) With(kind Kind, s Strategy) *Builder {
	out := &Builder{strategies: make(map[Kind]Strategy, len(b.strategies)+1)}
	for k, v := range b.strategies {
		out.strategies[k] = v
	}
	out.strategies[kind] = s
	return out
}

// BuildJobTask builds the submit-job task for req. Missing required fields
// yield a *config.ConfigurationError and no task.
func (b *Builder) BuildJobTask(req Request) (task.Descriptor, error) {
	if err := req.Spec.variant(); err != nil {
		return task.Descriptor{}, config.Invalid("job", "%v", err)
	}
	s, ok := b.strategies[req.Spec.Kind]
	if !ok {
		return task.Descriptor{}, config.Invalid("job", "no strategy for kind %q", req.Spec.Kind)
	}

	job, err := s.Job(req.ClusterName, req.JobName, req.Spec)
	if err != nil {
		return task.Descriptor{}, err
	}
	job.Placement = &dataproc.JobPlacement{ClusterName: req.ClusterName}

	jobName := req.JobName
	if jobName == "" {
		jobName = s.TaskID()
	}
	logging.Debug("Built %s task '%s' for cluster '%s'", req.Spec.Kind, jobName, req.ClusterName)
	return task.New(task.Params{
		ID:          s.TaskID(),
		Kind:        task.SubmitJob,
		ProjectID:   req.ProjectID,
		Region:      req.Region,
		ClusterName: req.ClusterName,
		JobName:     jobName,
		ConnID:      req.ConnID,
		Job:         job,
	})
}

// PySpark submits the driver directly.
type PySpark struct{}

func (PySpark) TaskID() string { return PythonTaskID }

func (PySpark) Job(clusterName, _ string, spec Spec) (*dataproc.Job, error) {
	p := spec.Python
	if err := config.Require("cluster_name", clusterName, "python_driver_code", p.DriverURI); err != nil {
		return nil, err
	}
	return &dataproc.Job{
		PysparkJob: &dataproc.PySparkJob{
			MainPythonFileUri: p.DriverURI,
			Args:              slices.Clone(p.Args),
		},
	}, nil
}

// SparkJar submits the jars and main class directly.
type SparkJar struct{}

func (SparkJar) TaskID() string { return JarTaskID }

func (SparkJar) Job(clusterName, _ string, spec Spec) (*dataproc.Job, error) {
	j := spec.Jar
	var missing []string
	if clusterName == "" {
		missing = append(missing, "cluster_name")
	}
	if len(j.JarURIs) == 0 || slices.Contains(j.JarURIs, "") {
		missing = append(missing, "jar_urls")
	}
	if j.MainClass == "" {
		missing = append(missing, "main_class")
	}
	if len(missing) > 0 {
		return nil, config.Missing(missing...)
	}
	return &dataproc.Job{
		SparkJob: &dataproc.SparkJob{
			JarFileUris: slices.Clone(j.JarURIs),
			MainClass:   j.MainClass,
			Args:        slices.Clone(j.Args),
		},
	}, nil
}
