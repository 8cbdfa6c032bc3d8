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

package file

import (
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// configDocument is the structured (YAML or TOML) form of the boosh configuration.
type configDocument struct {
	Gateways map[string]gatewayDocument `yaml:"gateways" toml:"gateways"`
	Groups   []groupDocument            `yaml:"groups" toml:"groups"`
	Profiles map[string]profileDocument `yaml:"profiles" toml:"profiles"`
}

type gatewayDocument struct {
	Hostname     string `yaml:"hostname" toml:"hostname"`
	Port         *int   `yaml:"port,omitempty" toml:"port,omitempty"`
	User         string `yaml:"user,omitempty" toml:"user,omitempty"`
	IdentityFile string `yaml:"identity_file,omitempty" toml:"identity_file,omitempty"`
	SSHOptions   string `yaml:"ssh_options,omitempty" toml:"ssh_options,omitempty"`
	UseNetcat    bool   `yaml:"use_netcat,omitempty" toml:"use_netcat,omitempty"`
	NetcatPath   string `yaml:"netcat_path,omitempty" toml:"netcat_path,omitempty"`
}

// groupDocument is a list entry so definition order survives decoding.
type groupDocument struct {
	Name       string  `yaml:"name" toml:"name"`
	Profile    *string `yaml:"profile,omitempty" toml:"profile,omitempty"`
	Region     *string `yaml:"region,omitempty" toml:"region,omitempty"`
	EC2Classic *bool   `yaml:"ec2_classic,omitempty" toml:"ec2_classic,omitempty"`
	VpcID      *string `yaml:"vpc_id,omitempty" toml:"vpc_id,omitempty"`
	SubnetID   *string `yaml:"subnet_id,omitempty" toml:"subnet_id,omitempty"`
	Gateway    string  `yaml:"gateway" toml:"gateway"`
}

type profileDocument struct {
	Regions []string `yaml:"regions,omitempty" toml:"regions,omitempty"`
}

func parseYAML(reader io.Reader) (domain.Configuration, error) {
	var doc configDocument

	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return domain.Configuration{}, &domain.ConfigError{Reason: "failed to parse YAML", Err: err}
	}
	return doc.toConfiguration()
}

func parseTOML(data []byte) (domain.Configuration, error) {
	var doc configDocument

	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return domain.Configuration{}, &domain.ConfigError{Reason: "failed to parse TOML", Err: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return domain.Configuration{}, &domain.ConfigError{Key: undecoded[0].String(), Reason: "unknown option"}
	}
	return doc.toConfiguration()
}

func (d configDocument) toConfiguration() (domain.Configuration, error) {
	cfg := domain.NewConfiguration()

	// Sorted so the first reported error does not depend on map order.
	names := make([]string, 0, len(d.Gateways))
	for name := range d.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		doc := d.Gateways[name]
		gw := domain.NewGateway(name, strings.TrimSpace(doc.Hostname))
		if doc.Port != nil {
			gw.Port = *doc.Port
		}
		gw.User = doc.User
		gw.IdentityFile = doc.IdentityFile
		gw.ExtraOptions = doc.SSHOptions
		gw.UseRelayBinary = doc.UseNetcat
		if doc.NetcatPath != "" {
			gw.RelayBinaryPath = doc.NetcatPath
		}
		if err := validateGateway(gw); err != nil {
			return domain.Configuration{}, err
		}
		cfg.Gateways[name] = gw
	}

	for i, doc := range d.Groups {
		g := domain.Group{
			Name:       strings.TrimSpace(doc.Name),
			Profile:    nonEmpty(doc.Profile),
			Region:     nonEmpty(doc.Region),
			EC2Classic: doc.EC2Classic,
			VpcID:      nonEmpty(doc.VpcID),
			SubnetID:   nonEmpty(doc.SubnetID),
			Gateway:    strings.TrimSpace(doc.Gateway),
		}
		if g.Name == "" {
			g.Name = "#" + strconv.Itoa(i+1)
		}
		if err := validateGroup(g); err != nil {
			return domain.Configuration{}, err
		}
		cfg.Groups = append(cfg.Groups, g)
	}

	for name, doc := range d.Profiles {
		cfg.Profiles[name] = domain.Profile{Name: name, Regions: splitRegions(doc.Regions...)}
	}

	return cfg, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
