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
	"fmt"

	"dataproc-toolkit/pkg/cluster"
	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/jobs"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/orchestrator"
	"dataproc-toolkit/pkg/workflow"
)

// RunOptions holds all the necessary parameters for the 'run' command logic
type RunOptions struct {
	ParentName   string
	WorkflowName string
	JobName      string
	Cluster      cluster.Config
	Job          jobs.Spec
	// OutputManifest, if set, receives the rendered workflow instead of submitting it
	OutputManifest string
}

// ExecuteRun assembles the create >> run >> delete workflow and hands it to o
func ExecuteRun(ctx context.Context, opts RunOptions, creds credentials.Provider, o orchestrator.Orchestrator) error {
	logging.Info("Starting dataproc-toolkit run workflow...")

	assembler := workflow.NewAssembler(creds)
	req := workflow.Request{
		ParentName: opts.ParentName,
		Name:       opts.WorkflowName,
		Cluster:    opts.Cluster,
		JobName:    opts.JobName,
		Job:        opts.Job,
	}

	// 1. Configuration errors stop here, before any lookup.
	if err := assembler.Check(req); err != nil {
		return err
	}

	// 2. Resolve the project; a saved manifest can do without one.
	if req.Cluster.ProjectID == "" && opts.OutputManifest == "" {
		projectID, err := credentials.ProjectID(ctx, "")
		if err != nil {
			return err
		}
		logging.Info("Using GCP Project ID from application default credentials: %s", projectID)
		req.Cluster.ProjectID = projectID
	}

	// 3. Assemble the workflow; this fetches S3 credentials when configured.
	w, err := assembler.Build(ctx, req)
	if err != nil {
		return err
	}

	// 4. Hand it off.
	if err := o.Submit(ctx, w, orchestrator.SubmitOptions{
		OutputManifest: opts.OutputManifest,
		ProjectID:      req.Cluster.ProjectID,
	}); err != nil {
		return fmt.Errorf("failed to submit workflow %s: %w", w.Name(), err)
	}

	logging.Info("dataproc-toolkit run workflow completed.")
	return nil
}
