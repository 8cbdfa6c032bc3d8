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
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

func parseINI(data []byte) (domain.Configuration, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return domain.Configuration{}, &domain.ConfigError{Reason: "failed to parse INI", Err: err}
	}

	defaults := f.Section(ini.DefaultSection)
	cfg := domain.NewConfiguration()
	for _, sec := range f.Sections() {
		kind, name, ok := splitSection(sec.Name())
		if !ok {
			continue
		}
		section := iniSection{Section: sec, defaults: defaults}

		switch kind {
		case sectionGateway:
			gw, err := gatewayFromSection(name, section)
			if err != nil {
				return domain.Configuration{}, err
			}
			cfg.Gateways[name] = gw
		case sectionGroup:
			g, err := groupFromSection(name, section)
			if err != nil {
				return domain.Configuration{}, err
			}
			cfg.Groups = append(cfg.Groups, g)
		case sectionProfile:
			p := domain.Profile{Name: name}
			if key, ok := section.lookup("regions"); ok {
				p.Regions = splitRegions(key.String())
			}
			cfg.Profiles[name] = p
		}
	}
	return cfg, nil
}

// iniSection reads keys from a section, falling back to [DEFAULT] the way
// Python's ConfigParser does.
type iniSection struct {
	*ini.Section
	defaults *ini.Section
}

func (s iniSection) lookup(name string) (*ini.Key, bool) {
	if key, err := s.GetKey(name); err == nil {
		return key, true
	}
	if s.defaults != nil {
		if key, err := s.defaults.GetKey(name); err == nil {
			return key, true
		}
	}
	return nil, false
}

func gatewayFromSection(name string, section iniSection) (domain.Gateway, error) {
	gw := domain.NewGateway(name, optionalString(section, "hostname"))
	secName := section.Name()

	if key, ok := section.lookup("port"); ok {
		raw := strings.TrimSpace(key.String())
		port, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Gateway{}, &domain.ConfigError{Section: secName, Key: "port", Reason: "not a number", Err: err}
		}
		gw.Port = port
	}
	gw.User = optionalString(section, "user")
	gw.IdentityFile = optionalString(section, "identity_file")
	gw.ExtraOptions = optionalString(section, "ssh_options")
	if path := optionalString(section, "netcat_path"); path != "" {
		gw.RelayBinaryPath = path
	}
	if key, ok := section.lookup("use_netcat"); ok {
		v, err := key.Bool()
		if err != nil {
			return domain.Gateway{}, &domain.ConfigError{Section: secName, Key: "use_netcat", Reason: "not a boolean", Err: err}
		}
		gw.UseRelayBinary = v
	}

	if err := validateGateway(gw); err != nil {
		return domain.Gateway{}, err
	}
	return gw, nil
}

func groupFromSection(name string, section iniSection) (domain.Group, error) {
	g := domain.Group{
		Name:     name,
		Gateway:  optionalString(section, "gateway"),
		Profile:  optionalStringPtr(section, "profile"),
		Region:   optionalStringPtr(section, "region"),
		VpcID:    optionalStringPtr(section, "vpc_id"),
		SubnetID: optionalStringPtr(section, "subnet_id"),
	}
	if key, ok := section.lookup("ec2_classic"); ok {
		v, err := key.Bool()
		if err != nil {
			return domain.Group{}, &domain.ConfigError{Section: section.Name(), Key: "ec2_classic", Reason: "not a boolean", Err: err}
		}
		g.EC2Classic = &v
	}

	if err := validateGroup(g); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func optionalString(section iniSection, name string) string {
	key, ok := section.lookup(name)
	if !ok {
		return ""
	}
	return strings.TrimSpace(key.String())
}

// optionalStringPtr returns nil for absent or empty keys so they act as wildcards.
func optionalStringPtr(section iniSection, name string) *string {
	v := optionalString(section, name)
	if v == "" {
		return nil
	}
	return &v
}
