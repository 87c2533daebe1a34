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

package cluster

import (
	"context"
	"errors"
	"testing"

	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/task"

	"github.com/google/go-cmp/cmp"
	dataproc "google.golang.org/api/dataproc/v1"
)

type failingProvider struct{ err error }

func (f failingProvider) Retrieve(context.Context, string) (credentials.Credentials, error) {
	return credentials.Credentials{}, f.err
}

func TestCreateTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Name = "test-dataproc-cluster"
	cfg.ProjectID = "airflow-dataproc"
	cfg.NumPreemptibleWorkers = 3
	cfg.ServiceAccount = "dataproc@airflow-dataproc.iam.gserviceaccount.com"

	d, err := NewLifecycle(nil).CreateTask(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if d.ID() != CreateTaskID || d.Kind() != task.CreateCluster {
		t.Errorf("got task %s/%s, want %s/%s", d.ID(), d.Kind(), CreateTaskID, task.CreateCluster)
	}
	if d.Region() != "us-west1" || d.ConnID() != DefaultGCPConnID || d.ClusterName() != cfg.Name {
		t.Errorf("unexpected descriptor fields: region=%q conn=%q cluster=%q", d.Region(), d.ConnID(), d.ClusterName())
	}
	if len(d.Upstream()) != 0 {
		t.Errorf("create task has predecessors: %v", d.Upstream())
	}

	want := &dataproc.Cluster{
		ClusterName: "test-dataproc-cluster",
		ProjectId:   "airflow-dataproc",
		Config: &dataproc.ClusterConfig{
			ConfigBucket: "moz-fx-data-prod-dataproc-scratch",
			GceClusterConfig: &dataproc.GceClusterConfig{
				ZoneUri:        "us-west1-b",
				ServiceAccount: "dataproc@airflow-dataproc.iam.gserviceaccount.com",
				Metadata: map[string]string{
					"gcs-connector-version":      "1.9.16",
					"bigquery-connector-version": "0.13.6",
				},
			},
			MasterConfig:          &dataproc.InstanceGroupConfig{NumInstances: 1, MachineTypeUri: "n1-standard-8"},
			WorkerConfig:          &dataproc.InstanceGroupConfig{NumInstances: 2, MachineTypeUri: "n1-standard-4"},
			SecondaryWorkerConfig: &dataproc.InstanceGroupConfig{NumInstances: 3, IsPreemptible: true},
			SoftwareConfig: &dataproc.SoftwareConfig{
				ImageVersion:       "1.4",
				OptionalComponents: []string{"ANACONDA"},
			},
			InitializationActions: []*dataproc.NodeInitializationAction{
				{ExecutableFile: "gs://moz-fx-data-prod-airflow-dataproc-artifacts/bootstrap/dataproc_init.sh"},
			},
			LifecycleConfig: &dataproc.LifecycleConfig{IdleDeleteTtl: "14400s", AutoDeleteTtl: "28800s"},
			EndpointConfig:  &dataproc.EndpointConfig{EnableHttpPortAccess: true},
		},
	}
	if diff := cmp.Diff(want, d.Cluster()); diff != "" {
		t.Errorf("cluster payload mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateTaskSingleNode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Name = "single"
	cfg.NumWorkers = 0
	cfg.InstallComponentGateway = false

	d, err := NewLifecycle(nil).CreateTask(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	c := d.Cluster().Config
	if c.WorkerConfig != nil {
		t.Errorf("WorkerConfig = %+v, want nil for a single node cluster", c.WorkerConfig)
	}
	if got := c.SoftwareConfig.Properties["dataproc:dataproc.allow.zero.workers"]; got != "true" {
		t.Errorf("allow.zero.workers = %q, want true", got)
	}
	if c.EndpointConfig != nil {
		t.Errorf("EndpointConfig = %+v, want nil without component gateway", c.EndpointConfig)
	}
}

func TestCreateTaskInjectsS3Credentials(t *testing.T) {
	tests := []struct {
		name  string
		creds credentials.Credentials
		want  map[string]string
	}{
		{
			name:  "without session token",
			creds: credentials.Credentials{AccessKey: "AKIA", SecretKey: "secret"},
			want: map[string]string{
				"core:fs.s3a.access.key": "AKIA",
				"core:fs.s3a.secret.key": "secret",
			},
		},
		{
			name:  "with session token",
			creds: credentials.Credentials{AccessKey: "ASIA", SecretKey: "secret", SessionToken: "token"},
			want: map[string]string{
				"core:fs.s3a.access.key":    "ASIA",
				"core:fs.s3a.secret.key":    "secret",
				"core:fs.s3a.session.token": "token",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Name = "s3-cluster"
			cfg.AWSConnID = "static://telemetry"
			l := NewLifecycle(credentials.StaticProvider{"static://telemetry": tt.creds})

			d, err := l.CreateTask(context.Background(), cfg)
			if err != nil {
				t.Fatalf("CreateTask() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, d.Cluster().Config.SoftwareConfig.Properties); diff != "" {
				t.Errorf("properties mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreateTaskCredentialFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Name = "s3-cluster"
	cfg.AWSConnID = "aws://telemetry"

	for name, l := range map[string]*Lifecycle{
		"provider error": NewLifecycle(failingProvider{err: errors.New("expired token")}),
		"no provider":    NewLifecycle(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := l.CreateTask(context.Background(), cfg)
			var le *credentials.LookupError
			if !errors.As(err, &le) {
				t.Fatalf("CreateTask() error = %v, want *credentials.LookupError", err)
			}
			if le.Ref != "aws://telemetry" {
				t.Errorf("LookupError.Ref = %q, want aws://telemetry", le.Ref)
			}
		})
	}
}

func TestCreateTaskValidatesBeforeCredentialLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AWSConnID = "aws://telemetry"
	called := false
	l := NewLifecycle(providerFunc(func() { called = true }))

	_, err := l.CreateTask(context.Background(), cfg)
	if !config.IsConfigurationError(err) {
		t.Fatalf("CreateTask() error = %v, want ConfigurationError", err)
	}
	if called {
		t.Errorf("credentials were looked up for an invalid config")
	}
}

type providerFunc func()

func (f providerFunc) Retrieve(context.Context, string) (credentials.Credentials, error) {
	f()
	return credentials.Credentials{AccessKey: "a"}, nil
}

func TestDeleteTask(t *testing.T) {
	cfg := Config{Name: "test-dataproc-cluster", Zone: "us-west1-b", ProjectID: "p", GCPConnID: "gcp"}
	d, err := NewLifecycle(nil).DeleteTask(cfg)
	if err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if d.ID() != DeleteTaskID || d.Kind() != task.DeleteCluster || d.ClusterName() != cfg.Name {
		t.Errorf("DeleteTask() = %s/%s/%s", d.ID(), d.Kind(), d.ClusterName())
	}
	if d.Cluster() != nil || d.Job() != nil {
		t.Errorf("delete task carries a payload")
	}

	if _, err := NewLifecycle(nil).DeleteTask(Config{}); !config.IsConfigurationError(err) {
		t.Errorf("DeleteTask(empty) error = %v, want ConfigurationError", err)
	}
}
