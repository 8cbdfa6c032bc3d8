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

package domain

import (
	"errors"
	"fmt"
)

// Exit codes for boosh
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitNotFound     = 2
	ExitUnreachable  = 3
	ExitConfigError  = 4
	ExitCacheError   = 5
	ExitCredentials  = 6
)

var (
	// ErrNotFound means neither the cache nor any profile/region knows the instance.
	ErrNotFound = errors.New("no instance found")
	// ErrUnreachable means the instance has no gateway and no public address.
	ErrUnreachable = errors.New("no public IP available")
	// ErrInstanceNotFound is returned by a directory for a single profile/region miss.
	ErrInstanceNotFound = errors.New("instance not found in region")
)

// ConfigError is a fatal problem with the boosh configuration.
type ConfigError struct {
	Section string
	Key     string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Section != "" {
		msg += fmt.Sprintf(" in [%s]", e.Section)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" key %q", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CredentialError means a profile has no usable credentials.
type CredentialError struct {
	Profile string
	Err     error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("no valid credentials for profile %s: %v", e.Profile, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// CacheError is an I/O failure on the instance cache.
type CacheError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr   *ConfigError
		cacheErr *CacheError
		credErr  *CredentialError
	)
	switch {
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrUnreachable):
		return ExitUnreachable
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &cacheErr):
		return ExitCacheError
	case errors.As(err, &credErr):
		return ExitCredentials
	default:
		return ExitGeneralError
	}
}
