// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aws

import (
	"context"
	"errors"
	"fmt"
	"io"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
)

// ErrUnknownProfile is returned for a profile missing from the shared files.
var ErrUnknownProfile = errors.New("profile is not configured")

// CredentialsRetriever resolves the credentials of a profile.
type CredentialsRetriever func(ctx context.Context, profile string) (awssdk.Credentials, error)

// RetrieveCredentials loads the shared configuration for profile and
// retrieves its credentials.
func RetrieveCredentials(ctx context.Context, profile string) (awssdk.Credentials, error) {
	cfg, err := LoadConfig(ctx, profile, "")
	if err != nil {
		return awssdk.Credentials{}, err
	}
	return cfg.Credentials.Retrieve(ctx)
}

// ExportCredentials writes the profile's credentials as environment
// assignments. Profiles unknown to profiles yield ErrUnknownProfile.
func ExportCredentials(ctx context.Context, w io.Writer, profiles *SharedProfiles, retrieve CredentialsRetriever, profile string) error {
	known, err := profiles.HasProfile(ctx, profile)
	if err != nil {
		return err
	}
	if profile == "" || !known {
		return ErrUnknownProfile
	}

	creds, err := retrieve(ctx, profile)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "AWS_ACCESS_KEY_ID=%s AWS_SECRET_ACCESS_KEY=%s", creds.AccessKeyID, creds.SecretAccessKey); err != nil {
		return err
	}
	if creds.SessionToken != "" {
		if _, err := fmt.Fprintf(w, " AWS_SESSION_TOKEN=%s", creds.SessionToken); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
