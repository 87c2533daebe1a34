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

package credentials

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	dataproc "google.golang.org/api/dataproc/v1"
)

// FindDefault is swapped in tests.
var FindDefault = google.FindDefaultCredentials

// ProjectID returns explicit when set, otherwise the project of the
// application default credentials.
func ProjectID(ctx context.Context, explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	creds, err := FindDefault(ctx, dataproc.CloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("failed to find default GCP credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return "", fmt.Errorf("GCP project ID is empty. Please provide it via --project or DATAPROC_PROJECT")
	}
	return creds.ProjectID, nil
}
