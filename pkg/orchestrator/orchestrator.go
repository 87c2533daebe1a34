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

package orchestrator

import (
	"context"

	"dataproc-toolkit/pkg/workflow"
)

// SubmitOptions holds the parameters of a hand-off that are not part of
// the workflow itself.
type SubmitOptions struct {
	// OutputManifest, when set, receives the rendered workflow instead of
	// submitting it.
	OutputManifest string
	// ProjectID overrides the project recorded in the workflow's tasks.
	ProjectID string
}

// Orchestrator hands an assembled workflow to an external engine. Scheduling,
// retries and execution all belong to that engine.
type Orchestrator interface {
	// Submit renders or submits w exactly once.
	Submit(ctx context.Context, w *workflow.Workflow, opts SubmitOptions) error
}
