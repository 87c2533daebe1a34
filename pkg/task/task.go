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

// Package task defines the descriptor handed to the external orchestrator
// for each step of a cluster workflow.
package task

import (
	"encoding/json"
	"fmt"
	"slices"

	dataproc "google.golang.org/api/dataproc/v1"
)

// Kind identifies what a Descriptor asks the orchestrator to do.
type Kind string

const (
	CreateCluster Kind = "create_cluster"
	SubmitJob     Kind = "submit_job"
	DeleteCluster Kind = "delete_cluster"
)

// Descriptor is an opaque unit of work. It is built once and never mutated:
// fields are unexported and accessors hand out copies.
type Descriptor struct {
	id          string
	kind        Kind
	upstream    []string
	projectID   string
	region      string
	clusterName string
	jobName     string
	connID      string
	cluster     *dataproc.Cluster
	job         *dataproc.Job
}

// Params are the inputs of New.
type Params struct {
	ID          string
	Kind        Kind
	ProjectID   string
	Region      string
	ClusterName string
	// JobName is the human readable name of a SubmitJob task.
	JobName string
	ConnID  string
	Cluster *dataproc.Cluster
	Job     *dataproc.Job
}

// New builds a Descriptor without predecessors. The payloads are copied.
func New(p Params) (Descriptor, error) {
	if p.ID == "" {
		return Descriptor{}, fmt.Errorf("task id cannot be empty")
	}
	if p.ClusterName == "" {
		return Descriptor{}, fmt.Errorf("task %s: cluster name cannot be empty", p.ID)
	}
	switch p.Kind {
	case CreateCluster:
		if p.Cluster == nil {
			return Descriptor{}, fmt.Errorf("task %s: %s requires a cluster payload", p.ID, p.Kind)
		}
	case SubmitJob:
		if p.Job == nil {
			return Descriptor{}, fmt.Errorf("task %s: %s requires a job payload", p.ID, p.Kind)
		}
	case DeleteCluster:
	default:
		return Descriptor{}, fmt.Errorf("task %s: unknown kind %q", p.ID, p.Kind)
	}

	d := Descriptor{
		id:          p.ID,
		kind:        p.Kind,
		projectID:   p.ProjectID,
		region:      p.Region,
		clusterName: p.ClusterName,
		jobName:     p.JobName,
		connID:      p.ConnID,
	}
	var err error
	if d.cluster, err = deepCopy(p.Cluster); err != nil {
		return Descriptor{}, fmt.Errorf("task %s: failed to copy cluster payload: %w", p.ID, err)
	}
	if d.job, err = deepCopy(p.Job); err != nil {
		return Descriptor{}, fmt.Errorf("task %s: failed to copy job payload: %w", p.ID, err)
	}
	return d, nil
}

// After returns a copy of d whose sole predecessor is up.
func (d Descriptor) After(up Descriptor) Descriptor {
	d.upstream = []string{up.id}
	return d
}

func (d Descriptor) ID() string          { return d.id }
func (d Descriptor) Kind() Kind          { return d.kind }
func (d Descriptor) ProjectID() string   { return d.projectID }
func (d Descriptor) Region() string      { return d.region }
func (d Descriptor) ClusterName() string { return d.clusterName }
func (d Descriptor) JobName() string     { return d.jobName }
func (d Descriptor) ConnID() string      { return d.connID }

// Upstream lists the ids of the tasks that must finish before this one.
func (d Descriptor) Upstream() []string { return slices.Clone(d.upstream) }

// Cluster returns a copy of the cluster payload of a CreateCluster task.
func (d Descriptor) Cluster() *dataproc.Cluster {
	c, _ := deepCopy(d.cluster)
	return c
}

// Job returns a copy of the job payload of a SubmitJob task.
func (d Descriptor) Job() *dataproc.Job {
	j, _ := deepCopy(d.job)
	return j
}

// MarshalJSON renders the descriptor for manifests and debugging.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string            `json:"id"`
		Kind        Kind              `json:"kind"`
		Upstream    []string          `json:"upstream,omitempty"`
		ProjectID   string            `json:"projectId,omitempty"`
		Region      string            `json:"region,omitempty"`
		ClusterName string            `json:"clusterName"`
		JobName     string            `json:"jobName,omitempty"`
		ConnID      string            `json:"connId,omitempty"`
		Cluster     *dataproc.Cluster `json:"cluster,omitempty"`
		Job         *dataproc.Job     `json:"job,omitempty"`
	}{d.id, d.kind, d.upstream, d.projectID, d.region, d.clusterName, d.jobName, d.connID, d.cluster, d.job})
}

// deepCopy round-trips an API struct through JSON; the generated dataproc
// types carry no unexported state.
func deepCopy[T any](v *T) (*T, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
