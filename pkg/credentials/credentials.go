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

// Package credentials resolves short-lived object-store credentials that get
// injected into a cluster's Hadoop properties, and the GCP project a
// workflow runs in.
package credentials

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Credentials is an access key / secret key / session token triple.
// Empty fields are absent and must not be injected.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Provider fetches credentials for a reference such as "aws://my-profile".
type Provider interface {
	Retrieve(ctx context.Context, ref string) (Credentials, error)
}

// LookupError is returned when credentials for Ref could not be fetched.
type LookupError struct {
	Ref string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to look up credentials for %q: %v", e.Ref, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Resolver dispatches a reference to the Provider registered for its scheme.
// A reference without a scheme is treated as an AWS profile name.
type Resolver struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewResolver returns a Resolver with the aws, env and file schemes registered.
func NewResolver() *Resolver {
	r := &Resolver{providers: map[string]Provider{}}
	r.Register("aws", AWSProvider{})
	r.Register("env", EnvProvider{})
	r.Register("file", FileProvider{})
	return r
}

// Register installs p for scheme, replacing any earlier registration.
func (r *Resolver) Register(scheme string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[scheme] = p
}

// Retrieve implements Provider. Every failure is wrapped in a *LookupError.
func (r *Resolver) Retrieve(ctx context.Context, ref string) (Credentials, error) {
	u, err := ParseRef(ref)
	if err != nil {
		return Credentials{}, &LookupError{Ref: ref, Err: err}
	}

	r.mu.RLock()
	p, ok := r.providers[u.Scheme]
	r.mu.RUnlock()
	if !ok {
		return Credentials{}, &LookupError{Ref: ref, Err: fmt.Errorf("no provider registered for scheme %q", u.Scheme)}
	}

	creds, err := p.Retrieve(ctx, u.String())
	if err != nil {
		return Credentials{}, &LookupError{Ref: ref, Err: err}
	}
	if creds.AccessKey == "" && creds.SecretKey == "" && creds.SessionToken == "" {
		return Credentials{}, &LookupError{Ref: ref, Err: fmt.Errorf("provider returned no credentials")}
	}
	return creds, nil
}

// ParseRef parses a credential reference. Bare names become aws://<name>.
func ParseRef(ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty credential reference")
	}
	if !strings.Contains(ref, "://") {
		ref = "aws://" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid credential reference: %w", err)
	}
	return u, nil
}

// StaticProvider serves fixed credentials keyed by the full reference.
type StaticProvider map[string]Credentials

// Retrieve implements Provider.
func (s StaticProvider) Retrieve(_ context.Context, ref string) (Credentials, error) {
	creds, ok := s[ref]
	if !ok {
		return Credentials{}, fmt.Errorf("unknown credential reference %q", ref)
	}
	return creds, nil
}
