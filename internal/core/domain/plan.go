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

// PlanMode tells the launcher how to reach the target.
type PlanMode string

const (
	// PlanDirect relays bytes straight to the instance's public address.
	PlanDirect PlanMode = "direct"
	// PlanGatewayTunnel uses ssh -W on the gateway.
	PlanGatewayTunnel PlanMode = "gateway-tunnel"
	// PlanGatewayRelay runs the relay binary on the gateway.
	PlanGatewayRelay PlanMode = "gateway-relay"
)

// ConnectionPlan describes a connection for a ConnectionLauncher to execute.
type ConnectionPlan struct {
	Mode       PlanMode
	InstanceID string
	Address    string
	Port       int

	// Set for gateway plans only.
	Gateway     string
	GatewayHost string
	// SSHArgs holds everything after the ssh program name, including the
	// gateway host and, in relay mode, the remote command.
	SSHArgs       []string
	RemoteCommand []string
}

// ViaGateway reports whether the plan routes through a gateway.
func (p ConnectionPlan) ViaGateway() bool {
	return p.Mode == PlanGatewayTunnel || p.Mode == PlanGatewayRelay
}
