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

const (
	DefaultSSHPort         = 22
	DefaultRelayBinaryPath = "/usr/bin/nc"
)

// Gateway is a relay host used to reach instances without a public address.
type Gateway struct {
	Name     string
	Hostname string
	Port     int
	User     string
	// IdentityFile may start with ~ and may be relative; it is expanded when planning.
	IdentityFile string
	// ExtraOptions is a raw ssh option string, split with shell word rules.
	ExtraOptions    string
	UseRelayBinary  bool
	RelayBinaryPath string
}

// NewGateway returns a gateway with default port and relay binary path.
func NewGateway(name, hostname string) Gateway {
	return Gateway{
		Name:            name,
		Hostname:        hostname,
		Port:            DefaultSSHPort,
		RelayBinaryPath: DefaultRelayBinaryPath,
	}
}

// Group binds instance attributes to a gateway. A nil field is a wildcard.
type Group struct {
	Name       string
	Profile    *string
	Region     *string
	EC2Classic *bool
	VpcID      *string
	SubnetID   *string
	Gateway    string
}

// Matches reports whether every constrained field equals the instance's attribute.
func (g Group) Matches(inst Instance) bool {
	if g.Profile != nil && *g.Profile != inst.ProfileName {
		return false
	}
	if g.Region != nil && *g.Region != inst.Region {
		return false
	}
	if g.EC2Classic != nil && *g.EC2Classic != inst.IsClassic() {
		return false
	}
	if g.VpcID != nil && *g.VpcID != inst.VpcID {
		return false
	}
	if g.SubnetID != nil && *g.SubnetID != inst.SubnetID {
		return false
	}
	return true
}

// Profile is credential profile metadata from the boosh configuration.
type Profile struct {
	Name    string
	Regions []string
}

// Configuration is the parsed boosh configuration.
// Groups keep the order in which they were defined.
type Configuration struct {
	Gateways map[string]Gateway
	Groups   []Group
	Profiles map[string]Profile
}

// NewConfiguration returns an empty configuration.
func NewConfiguration() Configuration {
	return Configuration{
		Gateways: make(map[string]Gateway),
		Groups:   make([]Group, 0),
		Profiles: make(map[string]Profile),
	}
}
