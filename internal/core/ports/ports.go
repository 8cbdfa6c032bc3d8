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

package ports

import (
	"context"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// InstanceCache is the local store of previously resolved instances.
type InstanceCache interface {
	// Lookup returns the first record for id in file order.
	Lookup(id string) (domain.Instance, bool, error)
	Append(inst domain.Instance) error
	List() ([]domain.Instance, error)
}

// ProfileSource lists credential profiles known to the provider tooling.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]string, error)
	// DefaultRegion returns "" when the profile has no default region.
	DefaultRegion(ctx context.Context, profile string) (string, error)
}

// InstanceDirectory describes a single instance for one profile and region.
// It returns *domain.CredentialError when the profile cannot authenticate and
// domain.ErrInstanceNotFound when the region does not know the instance.
type InstanceDirectory interface {
	DescribeInstance(ctx context.Context, profile, region, id string) (domain.InstanceRecord, error)
}

// ConfigurationLoader produces the parsed boosh configuration.
type ConfigurationLoader interface {
	Load() (domain.Configuration, error)
}

// ConnectionLauncher executes a connection plan.
type ConnectionLauncher interface {
	Launch(ctx context.Context, plan domain.ConnectionPlan) error
}

type ConfigProvider interface {
	HomeDir() string
	CachePath() string
	ConfigPath() string
	LogPath() string
	ExpandPath(path string) string
}

type FlagsProvider interface {
	IsDebug() bool
	GetFlag(name string) string
}
