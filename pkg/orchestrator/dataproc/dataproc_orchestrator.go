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

// Package dataproc hands workflows to Dataproc's own workflow-template
// engine, which creates the managed cluster, runs the job and deletes the
// cluster afterwards.
package dataproc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"dataproc-toolkit/pkg/credentials"
	"dataproc-toolkit/pkg/logging"
	"dataproc-toolkit/pkg/orchestrator"
	"dataproc-toolkit/pkg/workflow"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	dataproc "google.golang.org/api/dataproc/v1"
	"google.golang.org/api/option"
	"sigs.k8s.io/yaml"
)

// manifestPerm keeps saved templates private: cluster properties may carry
// s3a secret keys and session tokens.
const manifestPerm = 0600

var invalidLabelChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// DataprocOrchestrator implements orchestrator.Orchestrator on top of
// projects.regions.workflowTemplates.instantiateInline.
type DataprocOrchestrator struct {
	fs            afero.Fs
	clientOptions []option.ClientOption
}

var _ orchestrator.Orchestrator = (*DataprocOrchestrator)(nil)

// NewDataprocOrchestrator writes manifests to fs and talks to the Dataproc
// API with opts (application default credentials when empty).
func NewDataprocOrchestrator(fs afero.Fs, opts ...option.ClientOption) *DataprocOrchestrator {
	return &DataprocOrchestrator{fs: fs, clientOptions: opts}
}

// Submit renders w as an inline workflow template and either saves it to
// opts.OutputManifest or instantiates it once. It does not wait for the
// returned operation.
func (o *DataprocOrchestrator) Submit(ctx context.Context, w *workflow.Workflow, opts orchestrator.SubmitOptions) error {
	logging.Info("Handing workflow '%s' to Dataproc...", w.Name())

	tmpl, err := GenerateTemplate(w)
	if err != nil {
		return err
	}

	if opts.OutputManifest != "" {
		return o.saveManifest(tmpl, opts.OutputManifest)
	}

	projectID := opts.ProjectID
	if projectID == "" {
		projectID = w.Create().ProjectID()
	}
	projectID, err = credentials.ProjectID(ctx, projectID)
	if err != nil {
		return err
	}

	parent := fmt.Sprintf("projects/%s/regions/%s", projectID, w.Create().Region())
	op, err := o.instantiate(ctx, parent, tmpl)
	if err != nil {
		return err
	}
	logging.Info("Workflow '%s' submitted as operation %s", w.Name(), op.Name)
	return nil
}

// GenerateTemplate maps the create -> run -> delete chain onto an inline
// template: the create task becomes the managed cluster, the run task the
// single ordered job. Dataproc deletes a managed cluster once its jobs
// finish, which is the delete task.
func GenerateTemplate(w *workflow.Workflow) (*dataproc.WorkflowTemplate, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("failed to generate workflow template: %w", err)
	}
	create, run := w.Create(), w.Run()

	job := run.Job()
	step := &dataproc.OrderedJob{
		StepId:     run.ID(),
		PysparkJob: job.PysparkJob,
		SparkJob:   job.SparkJob,
		Labels:     map[string]string{"job-name": labelValue(run.JobName())},
	}
	if step.PysparkJob == nil && step.SparkJob == nil {
		return nil, fmt.Errorf("failed to generate workflow template: task %s has no supported job type", run.ID())
	}

	c := create.Cluster()
	return &dataproc.WorkflowTemplate{
		Labels: map[string]string{"workflow": labelValue(w.Name())},
		Placement: &dataproc.WorkflowTemplatePlacement{
			ManagedCluster: &dataproc.ManagedCluster{
				ClusterName: c.ClusterName,
				Config:      c.Config,
				Labels:      c.Labels,
			},
		},
		Jobs: []*dataproc.OrderedJob{step},
	}, nil
}

// RenderTemplate returns tmpl as YAML, in the shape accepted by
// `gcloud dataproc workflow-templates instantiate-from-file`.
func RenderTemplate(tmpl *dataproc.WorkflowTemplate) ([]byte, error) {
	out, err := yaml.Marshal(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to render workflow template: %w", err)
	}
	return out, nil
}

func (o *DataprocOrchestrator) saveManifest(tmpl *dataproc.WorkflowTemplate, path string) error {
	out, err := RenderTemplate(tmpl)
	if err != nil {
		return err
	}
	logging.Info("Saving workflow template to %s", path)
	if err := afero.WriteFile(o.fs, path, out, manifestPerm); err != nil {
		return fmt.Errorf("failed to write workflow template to file %s: %w", path, err)
	}
	// WriteFile keeps the mode of a file that already exists.
	if err := o.fs.Chmod(path, manifestPerm); err != nil {
		return fmt.Errorf("failed to restrict permissions of %s: %w", path, err)
	}
	logging.Info("Workflow template saved successfully.")
	return nil
}

func (o *DataprocOrchestrator) instantiate(ctx context.Context, parent string, tmpl *dataproc.WorkflowTemplate) (*dataproc.Operation, error) {
	svc, err := dataproc.NewService(ctx, o.clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Dataproc client: %w", err)
	}
	requestID := uuid.NewString()
	logging.Debug("Instantiating inline workflow template in %s (request %s)", parent, requestID)
	op, err := svc.Projects.Regions.WorkflowTemplates.InstantiateInline(parent, tmpl).RequestId(requestID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate workflow template in %s: %w", parent, err)
	}
	return op, nil
}

// labelValue lowercases s and replaces characters not allowed in GCP label values.
func labelValue(s string) string {
	v := invalidLabelChars.ReplaceAllString(strings.ToLower(s), "-")
	if len(v) > 63 {
		v = v[:63]
	}
	return v
}
