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

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/ports"
	"go.uber.org/zap"
)

// DefaultExcludedProfiles are pseudo-profiles that never carry credentials.
var DefaultExcludedProfiles = []string{"_path"}

type directoryClient struct {
	profileSource ports.ProfileSource
	directory     ports.InstanceDirectory
	excluded      map[string]struct{}
	logger        *zap.SugaredLogger
}

// NewDirectoryClient creates a directory client searching every profile
// from ps except the excluded pseudo-profiles.
func NewDirectoryClient(logger *zap.SugaredLogger, ps ports.ProfileSource, dir ports.InstanceDirectory, excluded ...string) *directoryClient {
	if len(excluded) == 0 {
		excluded = DefaultExcludedProfiles
	}
	set := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		set[name] = struct{}{}
	}
	return &directoryClient{
		profileSource: ps,
		directory:     dir,
		excluded:      set,
		logger:        logger,
	}
}

// Resolve searches profiles in name order and their regions in configured
// order, returning the first instance found. An exhausted search is reported
// with found=false and a nil error.
func (c *directoryClient) Resolve(ctx context.Context, id string, profiles map[string]domain.Profile, regionOverride string) (domain.Instance, bool, error) {
	names, err := c.profileNames(ctx, profiles)
	if err != nil {
		return domain.Instance{}, false, err
	}

	for _, profile := range names {
		regions, err := c.candidateRegions(ctx, profile, profiles, regionOverride)
		if err != nil {
			return domain.Instance{}, false, err
		}
		if len(regions) == 0 {
			c.logger.Debugw("skipping profile without region", "profile", profile)
			continue
		}

	regionLoop:
		for _, region := range regions {
			if err := ctx.Err(); err != nil {
				return domain.Instance{}, false, err
			}

			rec, err := c.directory.DescribeInstance(ctx, profile, region, id)
			var credErr *domain.CredentialError
			switch {
			case err == nil:
			case errors.As(err, &credErr):
				c.logger.Warnw("skipping profile", "profile", profile, "error", err)
				break regionLoop
			case errors.Is(err, domain.ErrInstanceNotFound):
				c.logger.Debugw("instance not in region", "instance_id", id, "profile", profile, "region", region)
				continue
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return domain.Instance{}, false, err
			default:
				c.logger.Warnw("describe instance failed", "instance_id", id, "profile", profile, "region", region, "error", err)
				continue
			}

			inst, err := domain.NewInstanceFromRecord(rec, profile, region)
			if err != nil {
				c.logger.Warnw("ignoring incomplete instance record", "instance_id", id, "profile", profile, "region", region, "error", err)
				continue
			}
			c.logger.Infow("instance resolved", "instance_id", inst.ID, "profile", profile, "region", region)
			return inst, true, nil
		}
	}

	return domain.Instance{}, false, nil
}

// profileNames merges provider profiles with the ones named in the boosh
// configuration, drops pseudo-profiles and sorts the result.
func (c *directoryClient) profileNames(ctx context.Context, profiles map[string]domain.Profile) ([]string, error) {
	available, err := c.profileSource.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credential profiles: %w", err)
	}

	seen := make(map[string]struct{}, len(available)+len(profiles))
	names := make([]string, 0, len(available)+len(profiles))
	add := func(name string) {
		if name == "" {
			return
		}
		if _, skip := c.excluded[name]; skip {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, name := range available {
		add(name)
	}
	for name := range profiles {
		add(name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *directoryClient) candidateRegions(ctx context.Context, profile string, profiles map[string]domain.Profile, regionOverride string) ([]string, error) {
	if regionOverride != "" {
		return []string{regionOverride}, nil
	}
	if p, ok := profiles[profile]; ok && len(p.Regions) > 0 {
		return p.Regions, nil
	}
	region, err := c.profileSource.DefaultRegion(ctx, profile)
	if err != nil {
		c.logger.Warnw("failed to read default region", "profile", profile, "error", err)
		return nil, nil
	}
	if region == "" {
		return nil, nil
	}
	return []string{region}, nil
}
