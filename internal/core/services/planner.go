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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	shellquote "github.com/kballard/go-shellquote"
)

// PlanConnection decides how to reach inst on port. With a gateway the plan
// routes through it, otherwise the instance's public address is used
// directly. An instance with neither is unreachable.
func PlanConnection(inst domain.Instance, gw *domain.Gateway, port int) (domain.ConnectionPlan, error) {
	if port < 1 || port > 65535 {
		return domain.ConnectionPlan{}, fmt.Errorf("port must be a number between 1 and 65535, got %d", port)
	}

	if gw != nil {
		return planViaGateway(inst, *gw, port)
	}

	if inst.PublicAddress == "" {
		return domain.ConnectionPlan{}, fmt.Errorf("instance %s: %w", inst.ID, domain.ErrUnreachable)
	}

	return domain.ConnectionPlan{
		Mode:       domain.PlanDirect,
		InstanceID: inst.ID,
		Address:    inst.PublicAddress,
		Port:       port,
	}, nil
}

func planViaGateway(inst domain.Instance, gw domain.Gateway, port int) (domain.ConnectionPlan, error) {
	args, err := gatewayOptions(gw)
	if err != nil {
		return domain.ConnectionPlan{}, err
	}

	target := strconv.Itoa(port)
	plan := domain.ConnectionPlan{
		InstanceID:  inst.ID,
		Address:     inst.PrivateAddress,
		Port:        port,
		Gateway:     gw.Name,
		GatewayHost: gw.Hostname,
	}

	if gw.UseRelayBinary {
		relay := gw.RelayBinaryPath
		if relay == "" {
			relay = domain.DefaultRelayBinaryPath
		}
		plan.Mode = domain.PlanGatewayRelay
		plan.RemoteCommand = []string{relay, inst.PrivateAddress, target}
		args = append(args, "-T", "-oExitOnForwardFailure=yes", "-oClearAllForwardings=yes")
		args = append(args, gw.Hostname)
		args = append(args, plan.RemoteCommand...)
	} else {
		plan.Mode = domain.PlanGatewayTunnel
		args = append(args, "-W", inst.PrivateAddress+":"+target)
		args = append(args, gw.Hostname)
	}

	plan.SSHArgs = args
	return plan, nil
}

// gatewayOptions builds the ssh options shared by both gateway modes.
// Extra options come first so the forced flags after them take effect.
func gatewayOptions(gw domain.Gateway) ([]string, error) {
	args := make([]string, 0, 12)

	if strings.TrimSpace(gw.ExtraOptions) != "" {
		extra, err := shellquote.Split(gw.ExtraOptions)
		if err != nil {
			return nil, &domain.ConfigError{Section: "gateway " + gw.Name, Key: "ssh_options", Err: err}
		}
		args = append(args, extra...)
	}

	gwPort := gw.Port
	if gwPort == 0 {
		gwPort = domain.DefaultSSHPort
	}
	args = append(args, fmt.Sprintf("-p%d", gwPort))

	if gw.User != "" {
		args = append(args, "-l", gw.User)
	}

	if gw.IdentityFile != "" {
		path, err := expandPath(gw.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("failed to expand identity file %q: %w", gw.IdentityFile, err)
		}
		args = append(args, "-i", path, "-oIdentitiesOnly=yes")
	}

	return args, nil
}

// expandPath resolves a leading ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
