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

// Package cmd defines the dataproc-toolkit command line.
package cmd

import (
	"context"

	"dataproc-toolkit/pkg/config"
	"dataproc-toolkit/pkg/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	// appFs is where cluster configs are read and manifests written.
	appFs = afero.NewOsFs()
	// env holds the DATAPROC_* defaults, loaded before any command runs.
	env = &config.Env{}
)

var rootCmd = &cobra.Command{
	Use:   "dataproc-toolkit",
	Short: "Runs batch jobs on transient Dataproc clusters.",
	Long: `dataproc-toolkit assembles a create cluster >> run job >> delete cluster
workflow and hands it to Dataproc's workflow template engine, or saves it as a
manifest for another orchestrator.

Site-wide defaults are read from DATAPROC_* environment variables and an
optional .env file in the working directory.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadEnv(".env")
		if err != nil {
			return err
		}
		env = loaded
		logging.SetVerbose(verbose || env.Verbose)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output.")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
