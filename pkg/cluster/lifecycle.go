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
	"fmt"
	"time"

	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/task"

	dataproc "google.golang.org/api/dataproc/v1"
)

const (
	CreateTaskID = "create_dataproc_cluster"
	DeleteTaskID = "delete_dataproc_cluster"

	// InitScript is run on every node; it lives under <bucket>/bootstrap/.
	InitScript = "dataproc_init.sh"

	GCSConnectorVersion      = "1.9.16"
	BigQueryConnectorVersion = "0.13.6"

	s3aPropertyPrefix   = "core:fs.s3a."
	zeroWorkersProperty = "dataproc:dataproc.allow.zero.workers"
)

// InitScriptURI is the cluster initialization action for bucket.
func InitScriptURI(bucket string) string {
	return fmt.Sprintf("gs://%s/bootstrap/%s", bucket, InitScript)
}

// Lifecycle builds the create and delete tasks of a transient cluster.
type Lifecycle struct {
	// Credentials resolves Config.AWSConnID. It may be nil when no
	// configuration references S3.
	Credentials credentials.Provider
}

// NewLifecycle returns a Lifecycle resolving S3 credentials through p.
func NewLifecycle(p credentials.Provider) *Lifecycle {
	return &Lifecycle{Credentials: p}
}

// CreateTask validates cfg and builds the create-cluster task. The only
// external call is the credential lookup for cfg.AWSConnID.
func (l *Lifecycle) CreateTask(ctx context.Context, cfg Config) (task.Descriptor, error) {
	if err := cfg.Validate(); err != nil {
		return task.Descriptor{}, err
	}
	region, _ := cfg.Region()

	properties, err := l.s3aProperties(ctx, cfg.AWSConnID)
	if err != nil {
		return task.Descriptor{}, err
	}
	if cfg.NumWorkers == 0 {
		properties[zeroWorkersProperty] = "true"
	}

	c := &dataproc.Cluster{
		ClusterName: cfg.Name,
		ProjectId:   cfg.ProjectID,
		Config: &dataproc.ClusterConfig{
			ConfigBucket: cfg.StorageBucket,
			GceClusterConfig: &dataproc.GceClusterConfig{
				ZoneUri:        cfg.Zone,
				ServiceAccount: cfg.ServiceAccount,
				Metadata: map[string]string{
					"gcs-connector-version":      GCSConnectorVersion,
					"bigquery-connector-version": BigQueryConnectorVersion,
				},
			},
			MasterConfig: &dataproc.InstanceGroupConfig{
				NumInstances:   1,
				MachineTypeUri: cfg.MasterMachineType,
			},
			SoftwareConfig: &dataproc.SoftwareConfig{
				ImageVersion:       cfg.ImageVersion,
				Properties:         properties,
				OptionalComponents: cfg.Components(),
			},
			InitializationActions: []*dataproc.NodeInitializationAction{
				{ExecutableFile: InitScriptURI(cfg.ArtifactBucket)},
			},
			LifecycleConfig: &dataproc.LifecycleConfig{
				IdleDeleteTtl: apiDuration(cfg.IdleDeleteTTL),
				AutoDeleteTtl: apiDuration(cfg.AutoDeleteTTL),
			},
		},
	}
	if cfg.NumWorkers > 0 {
		c.Config.WorkerConfig = &dataproc.InstanceGroupConfig{
			NumInstances:   int64(cfg.NumWorkers),
			MachineTypeUri: cfg.WorkerMachineType,
		}
	}
	if cfg.NumPreemptibleWorkers > 0 {
		c.Config.SecondaryWorkerConfig = &dataproc.InstanceGroupConfig{
			NumInstances:  int64(cfg.NumPreemptibleWorkers),
			IsPreemptible: true,
		}
	}
	if cfg.InstallComponentGateway {
		c.Config.EndpointConfig = &dataproc.EndpointConfig{EnableHttpPortAccess: true}
	}

	logging.Debug("Built create task for cluster '%s' in %s (%d workers, %d preemptible)", cfg.Name, cfg.Zone, cfg.NumWorkers, cfg.NumPreemptibleWorkers)
	return task.New(task.Params{
		ID:          CreateTaskID,
		Kind:        task.CreateCluster,
		ProjectID:   cfg.ProjectID,
		Region:      region,
		ClusterName: cfg.Name,
		ConnID:      cfg.GCPConnID,
		Cluster:     c,
	})
}

// DeleteTask builds the teardown task. Only the cluster name is required;
// deleting an already deleted cluster is left to the orchestrator.
func (l *Lifecycle) DeleteTask(cfg Config) (task.Descriptor, error) {
	if err := config.Require("cluster_name", cfg.Name); err != nil {
		return task.Descriptor{}, err
	}
	region, _ := cfg.Region()
	return task.New(task.Params{
		ID:          DeleteTaskID,
		Kind:        task.DeleteCluster,
		ProjectID:   cfg.ProjectID,
		Region:      region,
		ClusterName: cfg.Name,
		ConnID:      cfg.GCPConnID,
	})
}

// s3aProperties resolves ref and maps every non-empty part of the triple to
// its fs.s3a Hadoop property.
func (l *Lifecycle) s3aProperties(ctx context.Context, ref string) (map[string]string, error) {
	properties := map[string]string{}
	if ref == "" {
		return properties, nil
	}
	if l == nil || l.Credentials == nil {
		return nil, &credentials.LookupError{Ref: ref, Err: fmt.Errorf("no credential provider configured")}
	}

	creds, err := l.Credentials.Retrieve(ctx, ref)
	if err != nil {
		var le *credentials.LookupError
		if !errors.As(err, &le) {
			err = &credentials.LookupError{Ref: ref, Err: err}
		}
		return nil, err
	}

	for key, value := range map[string]string{
		"access.key":    creds.AccessKey,
		"secret.key":    creds.SecretKey,
		"session.token": creds.SessionToken,
	} {
		if value != "" {
			properties[s3aPropertyPrefix+key] = value
		}
	}
	logging.Debug("Injected %d fs.s3a properties from %q", len(properties), ref)
	return properties, nil
}

// apiDuration formats d the way the Dataproc API expects ("14400s").
func apiDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("%ds", int64(d/time.Second))
}
