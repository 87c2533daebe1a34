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

package cmd

import (
	"context"
	"time"

	"dataproc-toolkit/pkg/cluster"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/jobs"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/orchestrator"
	dporchestrator "dataproc-toolkit/pkg/orchestrator/dataproc"
	"dataproc-toolkit/pkg/run"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// clusterFlags mirrors cluster.Config on the command line. Only flags the
// user actually set override the defaults, environment and --cluster-config.
type clusterFlags struct {
	name                    string
	configFile              string
	salt                    bool
	projectID               string
	numWorkers              int
	numPreemptibleWorkers   int
	imageVersion            string
	zone                    string
	idleDeleteTTL           time.Duration
	autoDeleteTTL           time.Duration
	masterMachineType       string
	workerMachineType       string
	serviceAccount          string
	optionalComponents      []string
	installComponentGateway bool
	artifactBucket          string
	storageBucket           string
	awsConnID               string
	gcpConnID               string
}

func (f *clusterFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "cluster-name", "", "Name of the Dataproc cluster. Must not collide with a live cluster. Required.")
	fs.StringVar(&f.configFile, "cluster-config", "", "YAML file describing the cluster; flags override its values.")
	fs.BoolVar(&f.salt, "salt-cluster-name", false, "Append a random suffix to the cluster name.")
	fs.StringVarP(&f.projectID, "project", "p", "", "Google Cloud Project ID. If not provided, it is taken from DATAPROC_PROJECT or application default credentials.")
	fs.IntVar(&f.numWorkers, "num-workers", cluster.DefaultNumWorkers, "Number of primary workers; 0 creates a single node cluster.")
	fs.IntVar(&f.numPreemptibleWorkers, "num-preemptible-workers", 0, "Number of preemptible secondary workers.")
	fs.StringVar(&f.imageVersion, "image-version", cluster.DefaultImageVersion, "Dataproc image version.")
	fs.StringVar(&f.zone, "zone", cluster.DefaultZone, "Zone of the cluster; the region is derived from it.")
	fs.DurationVar(&f.idleDeleteTTL, "idle-delete-ttl", cluster.DefaultIdleDeleteTTL, "Delete the cluster after it has been idle this long.")
	fs.DurationVar(&f.autoDeleteTTL, "auto-delete-ttl", cluster.DefaultAutoDeleteTTL, "Delete the cluster after this total lifetime.")
	fs.StringVar(&f.masterMachineType, "master-machine-type", cluster.DefaultMasterMachineType, "Machine type of the master node.")
	fs.StringVar(&f.workerMachineType, "worker-machine-type", cluster.DefaultWorkerMachineType, "Machine type of the workers.")
	fs.StringVar(&f.serviceAccount, "service-account", "", "Service account of the cluster VMs. Needs roles/logging.logWriter and roles/storage.objectAdmin.")
	fs.StringSliceVar(&f.optionalComponents, "optional-components", []string{"ANACONDA"}, "Optional components to install.")
	fs.BoolVar(&f.installComponentGateway, "install-component-gateway", true, "Enable the component gateway.")
	fs.StringVar(&f.artifactBucket, "artifact-bucket", cluster.DefaultArtifactBucket, "Bucket holding the init script, script-runner.jar and airflow_gcp.sh.")
	fs.StringVar(&f.storageBucket, "storage-bucket", cluster.DefaultStorageBucket, "Staging bucket of the cluster.")
	fs.StringVar(&f.awsConnID, "aws-conn-id", "", "S3 credentials to inject: aws://<profile>, env:// or file://<path>?profile=<name>.")
	fs.StringVar(&f.gcpConnID, "gcp-conn-id", cluster.DefaultGCPConnID, "Orchestrator connection used to reach GCP.")
}

// apply overlays the flags the user set on cfg.
func (f *clusterFlags) apply(fs *pflag.FlagSet, cfg *cluster.Config) {
	set := map[string]func(){
		"cluster-name":              func() { cfg.Name = f.name },
		"project":                   func() { cfg.ProjectID = f.projectID },
		"num-workers":               func() { cfg.NumWorkers = f.numWorkers },
		"num-preemptible-workers":   func() { cfg.NumPreemptibleWorkers = f.numPreemptibleWorkers },
		"image-version":             func() { cfg.ImageVersion = f.imageVersion },
		"zone":                      func() { cfg.Zone = f.zone },
		"idle-delete-ttl":           func() { cfg.IdleDeleteTTL = f.idleDeleteTTL },
		"auto-delete-ttl":           func() { cfg.AutoDeleteTTL = f.autoDeleteTTL },
		"master-machine-type":       func() { cfg.MasterMachineType = f.masterMachineType },
		"worker-machine-type":       func() { cfg.WorkerMachineType = f.workerMachineType },
		"service-account":           func() { cfg.ServiceAccount = f.serviceAccount },
		"optional-components":       func() { cfg.OptionalComponents = f.optionalComponents },
		"install-component-gateway": func() { cfg.InstallComponentGateway = f.installComponentGateway },
		"artifact-bucket":           func() { cfg.ArtifactBucket = f.artifactBucket },
		"storage-bucket":            func() { cfg.StorageBucket = f.storageBucket },
		"aws-conn-id":               func() { cfg.AWSConnID = f.awsConnID },
		"gcp-conn-id":               func() { cfg.GCPConnID = f.gcpConnID },
	}
	fs.Visit(func(flag *pflag.Flag) {
		if fn, ok := set[flag.Name]; ok {
			fn()
		}
	})
}

// resolve builds the cluster config: defaults, then DATAPROC_* variables,
// then --cluster-config, then explicit flags.
func (f *clusterFlags) resolve(fs *pflag.FlagSet, base cluster.Config) (cluster.Config, error) {
	cfg := base
	overlay := map[*string]string{
		&cfg.ArtifactBucket: env.ArtifactBucket,
		&cfg.StorageBucket:  env.StorageBucket,
		&cfg.GCPConnID:      env.GCPConnID,
		&cfg.AWSConnID:      env.AWSConnID,
		&cfg.ProjectID:      env.Project,
		&cfg.ServiceAccount: env.ServiceAccount,
	}
	for field, value := range overlay {
		if value != "" {
			*field = value
		}
	}

	if f.configFile != "" {
		loaded, err := cluster.LoadFile(appFs, f.configFile, cfg)
		if err != nil {
			return cluster.Config{}, err
		}
		cfg = loaded
	}
	f.apply(fs, &cfg)

	if f.salt && cfg.Name != "" {
		cfg = cfg.Salted()
		logging.Info("Using salted cluster name '%s'", cfg.Name)
	}
	return cfg, nil
}

var (
	clusterOpts    = &clusterFlags{}
	parentName     string
	workflowName   string
	jobName        string
	outputManifest string

	pythonDriver string
	jarURIs      []string
	mainClass    string
	scriptURI    string
	scriptEnv    map[string]string
	scriptArgs   string

	// newOrchestrator is swapped in tests.
	newOrchestrator = func() orchestrator.Orchestrator {
		return dporchestrator.NewDataprocOrchestrator(appFs)
	}
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs a job on a transient Dataproc cluster.",
	Long: `The 'run' command creates a Dataproc cluster, runs a single job on it and
deletes the cluster afterwards. Job arguments follow a '--' separator.`,
}

var runPySparkCmd = &cobra.Command{
	Use:   "pyspark --driver gs://bucket/main.py [-- args...]",
	Short: "Runs a PySpark driver.",
	Example: `  dataproc-toolkit run pyspark --parent-name my_dag --cluster-name test-dataproc-cluster \
    --job-name Do_something_on_pyspark --driver gs://some_bucket/some_py_script.py -- -d 20200101`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, cluster.DefaultPySparkConfig(), jobs.Python(pythonDriver, args...))
	},
}

var runJarCmd = &cobra.Command{
	Use:   "jar --jar gs://bucket/job.jar --main-class com.example.Main [-- args...]",
	Short: "Runs a main class from one or more jars.",
	Example: `  dataproc-toolkit run jar --parent-name my_dag --cluster-name test-dataproc-cluster \
    --jar gs://some_bucket/some_jar.jar --main-class com.mozilla.path.to.ClassName -- -d 20200101`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, cluster.DefaultConfig(), jobs.Jar(jarURIs, mainClass, args...))
	},
}

var runScriptCmd = &cobra.Command{
	Use:   "script --uri <script> --job-name <name>",
	Short: "Runs a script through script-runner.jar and airflow_gcp.sh.",
	Long: `Runs an http(s) or gs:// script (.py, .sh, ...) the way the EMR script
runner does: script-runner.jar invokes the airflow_gcp.sh bootstrap script,
which downloads the script and runs it with the given environment and
arguments.`,
	Example: `  dataproc-toolkit run script --parent-name my_dag --cluster-name test-dataproc-cluster \
    --job-name Run_a_script_on_dataproc --uri https://example.com/jobs/some_script.sh \
    --env date=20200101 --arguments "-d 20200101"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, cluster.DefaultConfig(), jobs.Script(scriptURI, scriptEnv, scriptArgs))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runPySparkCmd, runJarCmd, runScriptCmd)

	pf := runCmd.PersistentFlags()
	clusterOpts.register(pf)
	pf.StringVar(&parentName, "parent-name", "", "Name of the enclosing workflow. Required.")
	pf.StringVar(&workflowName, "workflow-name", "", "Name of this workflow; defaults per job kind.")
	pf.StringVar(&jobName, "job-name", "", "Name of the job. Required for script jobs.")
	pf.StringVarP(&outputManifest, "output-manifest", "o", "", "Path to save the workflow template instead of submitting it.")
	_ = runCmd.MarkPersistentFlagRequired("parent-name")

	runPySparkCmd.Flags().StringVar(&pythonDriver, "driver", "", "HCFS URI of the main Python file. Required.")
	runJarCmd.Flags().StringSliceVar(&jarURIs, "jar", nil, "Jar URIs; repeat or comma separate. Required.")
	runJarCmd.Flags().StringVar(&mainClass, "main-class", "", "Entrypoint class. Required.")
	runScriptCmd.Flags().StringVar(&scriptURI, "uri", "", "http(s) or gs:// URI of the script. Required.")
	runScriptCmd.Flags().StringToStringVar(&scriptEnv, "env", nil, "Environment variables for the script, key=value.")
	runScriptCmd.Flags().StringVar(&scriptArgs, "arguments", "", "Arguments passed to the script as one string.")
}

func runWorkflow(cmd *cobra.Command, base cluster.Config, spec jobs.Spec) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logging.Info("Executing dataproc-toolkit run %s...", spec.Kind)

	cfg, err := clusterOpts.resolve(cmd.Flags(), base)
	if err != nil {
		return err
	}

	return run.ExecuteRun(ctx, run.RunOptions{
		ParentName:     parentName,
		WorkflowName:   workflowName,
		JobName:        jobName,
		Cluster:        cfg,
		Job:            spec,
		OutputManifest: outputManifest,
	}, credentials.NewResolver(), newOrchestrator())
}
