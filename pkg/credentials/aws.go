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
	"net/url"

	"github.com/aws/aws-sdk-go-v2/config"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// AWSProvider resolves aws://<profile> through the AWS SDK default chain,
// so shared config, SSO, web identity and instance roles all work.
type AWSProvider struct{}

// Retrieve implements Provider.
func (AWSProvider) Retrieve(ctx context.Context, ref string) (Credentials, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return Credentials{}, err
	}

	var opts []func(*config.LoadOptions) error
	if profile := u.Host; profile != "" && profile != "default" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Credentials == nil {
		return Credentials{}, fmt.Errorf("no AWS credential provider configured")
	}
	v, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}
	return Credentials{
		AccessKey:    v.AccessKeyID,
		SecretKey:    v.SecretAccessKey,
		SessionToken: v.SessionToken,
	}, nil
}

// EnvProvider reads AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
// AWS_SESSION_TOKEN (or their AWS_ACCESS_KEY / AWS_SECRET_KEY aliases).
type EnvProvider struct{}

// Retrieve implements Provider.
func (EnvProvider) Retrieve(_ context.Context, _ string) (Credentials, error) {
	return fromMinio(miniocreds.NewEnvAWS())
}

// FileProvider reads a shared credentials file:
// file:///path/to/credentials?profile=name. An empty path falls back to
// ~/.aws/credentials and an empty profile to "default".
type FileProvider struct{}

// Retrieve implements Provider.
func (FileProvider) Retrieve(_ context.Context, ref string) (Credentials, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return Credentials{}, err
	}
	return fromMinio(miniocreds.NewFileAWSCredentials(u.Path, u.Query().Get("profile")))
}

func fromMinio(c *miniocreds.Credentials) (Credentials, error) {
	v, err := c.Get()
	if err != nil {
		return Credentials{}, err
	}
	if v.AccessKeyID == "" {
		return Credentials{}, fmt.Errorf("no access key found")
	}
	return Credentials{
		AccessKey:    v.AccessKeyID,
		SecretKey:    v.SecretAccessKey,
		SessionToken: v.SessionToken,
	}, nil
}
