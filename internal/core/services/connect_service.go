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
	"fmt"
	"strings"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/ports"
	"go.uber.org/zap"
)

// instanceResolver is the live lookup used on a cache miss.
type instanceResolver interface {
	Resolve(ctx context.Context, id string, profiles map[string]domain.Profile, regionOverride string) (domain.Instance, bool, error)
}

// ResolveOptions tune a single resolution.
type ResolveOptions struct {
	// Region restricts the live search to one region for every profile.
	Region string
	// Refresh skips the cache read; the resolved record is still appended.
	Refresh bool
}

// Resolution is the outcome of the pipeline up to the launcher.
type Resolution struct {
	Instance  domain.Instance
	FromCache bool
	Gateway   *domain.Gateway
	Plan      domain.ConnectionPlan
}

type connectService struct {
	cache    ports.InstanceCache
	resolver instanceResolver
	loader   ports.ConfigurationLoader
	launcher ports.ConnectionLauncher
	logger   *zap.SugaredLogger
}

// NewConnectService creates a new instance of connectService.
func NewConnectService(logger *zap.SugaredLogger, cache ports.InstanceCache, resolver instanceResolver,
	loader ports.ConfigurationLoader, launcher ports.ConnectionLauncher,
) *connectService {
	return &connectService{
		cache:    cache,
		resolver: resolver,
		loader:   loader,
		launcher: launcher,
		logger:   logger,
	}
}

// Resolve returns the instance for id, reading the cache first and falling
// back to the directory search. Directory results are appended to the cache.
func (s *connectService) Resolve(ctx context.Context, id string, opts ResolveOptions) (domain.Instance, bool, error) {
	cfg, err := s.loader.Load()
	if err != nil {
		return domain.Instance{}, false, err
	}
	return s.resolve(ctx, id, cfg, opts)
}

func (s *connectService) resolve(ctx context.Context, id string, cfg domain.Configuration, opts ResolveOptions) (domain.Instance, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Instance{}, false, fmt.Errorf("instance id is required")
	}

	if !opts.Refresh {
		inst, found, err := s.cache.Lookup(id)
		if err != nil {
			s.logger.Errorw("cache lookup failed", "instance_id", id, "error", err)
			return domain.Instance{}, false, err
		}
		if found {
			s.logger.Debugw("cache hit", "instance_id", id)
			return inst, true, nil
		}
	}

	s.logger.Infow("searching directory", "instance_id", id, "region", opts.Region)
	inst, found, err := s.resolver.Resolve(ctx, id, cfg.Profiles, opts.Region)
	if err != nil {
		return domain.Instance{}, false, fmt.Errorf("failed to search for %s: %w", id, err)
	}
	if !found {
		return domain.Instance{}, false, fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}

	if err := s.cache.Append(inst); err != nil {
		s.logger.Errorw("failed to cache instance", "instance_id", id, "error", err)
		return domain.Instance{}, false, err
	}
	return inst, false, nil
}

// Plan runs the pipeline up to the connection plan without launching anything.
func (s *connectService) Plan(ctx context.Context, id string, port int, opts ResolveOptions) (Resolution, error) {
	cfg, err := s.loader.Load()
	if err != nil {
		return Resolution{}, err
	}

	inst, fromCache, err := s.resolve(ctx, id, cfg, opts)
	if err != nil {
		return Resolution{}, err
	}

	gw, err := ResolveGateway(inst, cfg)
	if err != nil {
		s.logger.Errorw("gateway resolution failed", "instance_id", inst.ID, "error", err)
		return Resolution{}, err
	}

	plan, err := PlanConnection(inst, gw, port)
	if err != nil {
		s.logger.Warnw("planning failed", "instance_id", inst.ID, "error", err)
		return Resolution{}, err
	}

	res := Resolution{Instance: inst, FromCache: fromCache, Gateway: gw, Plan: plan}
	s.logger.Infow("connection planned", "instance_id", inst.ID, "mode", plan.Mode, "gateway", plan.Gateway)
	return res, nil
}

// Connect resolves id and hands the plan to the launcher.
func (s *connectService) Connect(ctx context.Context, id string, port int, opts ResolveOptions) error {
	res, err := s.Plan(ctx, id, port, opts)
	if err != nil {
		return err
	}

	s.logger.Infow("connection start", "instance_id", res.Instance.ID, "mode", res.Plan.Mode)
	if err := s.launcher.Launch(ctx, res.Plan); err != nil {
		s.logger.Errorw("connection command failed", "instance_id", res.Instance.ID, "mode", res.Plan.Mode, "error", err)
		return err
	}
	s.logger.Infow("connection end", "instance_id", res.Instance.ID)
	return nil
}

// ListCached returns the cached instances, first record per id.
func (s *connectService) ListCached() ([]domain.Instance, error) {
	instances, err := s.cache.List()
	if err != nil {
		s.logger.Errorw("failed to list cache", "error", err)
		return nil, err
	}
	return instances, nil
}
