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
	"fmt"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// ResolveGateway picks the gateway for inst. Groups are tried in
// configuration order and the first match wins, so specific groups must be
// defined before general ones. Without a matching group, a gateway named
// after the instance's profile is used. A nil gateway means direct routing.
func ResolveGateway(inst domain.Instance, cfg domain.Configuration) (*domain.Gateway, error) {
	for _, group := range cfg.Groups {
		if !group.Matches(inst) {
			continue
		}

		gw, ok := cfg.Gateways[group.Gateway]
		if !ok {
			return nil, &domain.ConfigError{
				Section: "group " + group.Name,
				Key:     "gateway",
				Reason:  fmt.Sprintf("gateway %q is not defined", group.Gateway),
			}
		}
		return &gw, nil
	}

	if gw, ok := cfg.Gateways[inst.ProfileName]; ok {
		return &gw, nil
	}

	return nil, nil
}
