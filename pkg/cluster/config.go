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

// Package cluster describes a transient Dataproc cluster and builds the
// create and delete tasks for it.
package cluster

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/logging"

	"github.com/agext/levenshtein"
	"github.com/google/uuid"
)

// Defaults applied by DefaultConfig.
const (
	DefaultNumWorkers        = 2
	DefaultImageVersion      = "1.4"
	DefaultZone              = "us-west1-b"
	DefaultIdleDeleteTTL     = 4 * time.Hour
	DefaultAutoDeleteTTL     = 8 * time.Hour
	DefaultMasterMachineType = "n1-standard-8"
	DefaultWorkerMachineType = "n1-standard-4"
	DefaultArtifactBucket    = "moz-fx-data-prod-airflow-dataproc-artifacts"
	DefaultStorageBucket     = "moz-fx-data-prod-dataproc-scratch"
	DefaultGCPConnID         = "google_cloud_airflow_dataproc"

	// PySpark runs use a shorter lifetime.
	DefaultPySparkIdleDeleteTTL = 3 * time.Hour
	DefaultPySparkAutoDeleteTTL = 6 * time.Hour

	minIdleDeleteTTL = 10 * time.Minute

	maxClusterNameLen = 51
	saltLen           = 8
	maxSaltedBaseLen  = maxClusterNameLen - saltLen - 1
)

// KnownComponents are the optional components Dataproc can install.
var KnownComponents = []string{
	"ANACONDA", "DELTA", "DOCKER", "DRUID", "FLINK", "HBASE", "HIVE_WEBHCAT",
	"HUDI", "ICEBERG", "JUPYTER", "PRESTO", "RANGER", "SOLR", "TRINO",
	"ZEPPELIN", "ZOOKEEPER",
}

var clusterNameRE = regexp.MustCompile(`^[a-z](?:[-a-z0-9]{0,49}[a-z0-9])?$`)

// Config holds everything needed to provision one transient cluster.
// Start from DefaultConfig and override fields; Validate runs once when a
// task is built.
type Config struct {
	// Name must be unique per run, otherwise creation collides with a live cluster.
	Name string `yaml:"name"`
	// ProjectID is resolved from the GCP connection when empty.
	ProjectID string `yaml:"project_id"`

	NumWorkers            int    `yaml:"num_workers"`
	NumPreemptibleWorkers int    `yaml:"num_preemptible_workers"`
	ImageVersion          string `yaml:"image_version"`
	Zone                  string `yaml:"zone"`
	MasterMachineType     string `yaml:"master_machine_type"`
	WorkerMachineType     string `yaml:"worker_machine_type"`

	// IdleDeleteTTL deletes the cluster after this long without jobs.
	IdleDeleteTTL time.Duration `yaml:"idle_delete_ttl"`
	// AutoDeleteTTL caps the cluster's total lifetime.
	AutoDeleteTTL time.Duration `yaml:"auto_delete_ttl"`

	// ServiceAccount for the cluster VMs. It needs roles/logging.logWriter
	// and roles/storage.objectAdmin.
	ServiceAccount          string   `yaml:"service_account"`
	OptionalComponents      []string `yaml:"optional_components"`
	InstallComponentGateway bool     `yaml:"install_component_gateway"`

	// ArtifactBucket holds the init script, script-runner.jar and airflow_gcp.sh.
	ArtifactBucket string `yaml:"artifact_bucket"`
	// StorageBucket is the cluster's staging/config bucket.
	StorageBucket string `yaml:"storage_bucket"`

	// AWSConnID references S3 credentials injected as fs.s3a properties.
	AWSConnID string `yaml:"aws_conn_id"`
	// GCPConnID names the orchestrator connection used to talk to GCP.
	GCPConnID string `yaml:"gcp_conn_id"`
}

// DefaultConfig returns the standard cluster shape.
func DefaultConfig() Config {
	return Config{
		NumWorkers:              DefaultNumWorkers,
		ImageVersion:            DefaultImageVersion,
		Zone:                    DefaultZone,
		IdleDeleteTTL:           DefaultIdleDeleteTTL,
		AutoDeleteTTL:           DefaultAutoDeleteTTL,
		MasterMachineType:       DefaultMasterMachineType,
		WorkerMachineType:       DefaultWorkerMachineType,
		OptionalComponents:      []string{"ANACONDA"},
		InstallComponentGateway: true,
		ArtifactBucket:          DefaultArtifactBucket,
		StorageBucket:           DefaultStorageBucket,
		GCPConnID:               DefaultGCPConnID,
	}
}

// DefaultPySparkConfig is DefaultConfig with the shorter PySpark TTLs.
func DefaultPySparkConfig() Config {
	c := DefaultConfig()
	c.IdleDeleteTTL = DefaultPySparkIdleDeleteTTL
	c.AutoDeleteTTL = DefaultPySparkAutoDeleteTTL
	return c
}

// Validate checks the fields needed to create the cluster.
func (c Config) Validate() error {
	if err := config.Require("cluster_name", c.Name, "artifact_bucket", c.ArtifactBucket); err != nil {
		return err
	}
	if !clusterNameRE.MatchString(c.Name) {
		return config.Invalid("cluster_name", "%q must start with a lowercase letter, contain only lowercase letters, digits and hyphens, not end with a hyphen and be at most 51 characters", c.Name)
	}
	if c.NumWorkers < 0 {
		return config.Invalid("num_workers", "must be >= 0, got %d", c.NumWorkers)
	}
	if c.NumPreemptibleWorkers < 0 {
		return config.Invalid("num_preemptible_workers", "must be >= 0, got %d", c.NumPreemptibleWorkers)
	}
	if c.NumWorkers == 0 && c.NumPreemptibleWorkers > 0 {
		return config.Invalid("num_preemptible_workers", "single node clusters cannot have preemptible workers")
	}
	if _, err := c.Region(); err != nil {
		return err
	}
	if c.IdleDeleteTTL < 0 || (c.IdleDeleteTTL > 0 && c.IdleDeleteTTL < minIdleDeleteTTL) {
		return config.Invalid("idle_delete_ttl", "must be 0 or at least %s, got %s", minIdleDeleteTTL, c.IdleDeleteTTL)
	}
	if c.AutoDeleteTTL < 0 {
		return config.Invalid("auto_delete_ttl", "must be >= 0, got %s", c.AutoDeleteTTL)
	}
	return nil
}

// WarnUnknownComponents logs optional components missing from
// KnownComponents. Dataproc adds components over time, so they are passed
// through rather than rejected.
func (c Config) WarnUnknownComponents() {
	for _, comp := range c.Components() {
		if !slices.Contains(KnownComponents, comp) {
			logging.Warn("cluster %q: unknown optional component %q%s", c.Name, comp, suggest(comp))
		}
	}
}

// Region derives the Dataproc region from the zone: us-west1-b -> us-west1.
func (c Config) Region() (string, error) {
	i := strings.LastIndex(c.Zone, "-")
	if c.Zone == "" || i <= 0 || i == len(c.Zone)-1 || !strings.Contains(c.Zone[:i], "-") {
		return "", config.Invalid("zone", "%q is not a zone such as %q", c.Zone, DefaultZone)
	}
	return c.Zone[:i], nil
}

// Components returns the upper-cased, de-duplicated optional components.
func (c Config) Components() []string {
	var out []string
	for _, comp := range c.OptionalComponents {
		comp = strings.ToUpper(strings.TrimSpace(comp))
		if comp != "" && !slices.Contains(out, comp) {
			out = append(out, comp)
		}
	}
	return out
}

// Salted returns a copy of c whose name carries a random suffix, so that a
// rerun does not collide with a cluster left over from a previous run. The
// base name is shortened as needed to keep the result within the name limit.
func (c Config) Salted() Config {
	c.OptionalComponents = slices.Clone(c.OptionalComponents)
	base := c.Name
	if len(base) > maxSaltedBaseLen {
		base = strings.TrimRight(base[:maxSaltedBaseLen], "-")
	}
	c.Name = fmt.Sprintf("%s-%s", base, uuid.NewString()[:saltLen])
	return c
}

func suggest(comp string) string {
	best, bestDist := "", 3
	for _, known := range KnownComponents {
		if d := levenshtein.Distance(strings.ToUpper(comp), known, nil); d < bestDist {
			best, bestDist = known, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(", did you mean %q?", best)
}
