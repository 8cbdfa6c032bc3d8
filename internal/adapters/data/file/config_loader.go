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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// Config file formats, chosen by file extension.
const (
	FormatINI  = "ini"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

type configLoader struct {
	filePath string
	logger   *zap.SugaredLogger
}

// NewConfigLoader returns a loader for the boosh configuration at filePath.
func NewConfigLoader(logger *zap.SugaredLogger, filePath string) *configLoader {
	return &configLoader{filePath: filePath, logger: logger}
}

// Load reads and validates the configuration. A missing file yields an
// empty configuration.
func (cl *configLoader) Load() (domain.Configuration, error) {
	data, err := os.ReadFile(cl.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			cl.logger.Debugw("config file not found, using empty configuration", "path", cl.filePath)
			return domain.NewConfiguration(), nil
		}
		return domain.Configuration{}, &domain.ConfigError{Reason: "failed to read " + cl.filePath, Err: err}
	}

	format := FormatFor(cl.filePath)
	cfg, err := ParseConfiguration(format, data)
	if err != nil {
		return domain.Configuration{}, err
	}

	cl.logger.Debugw("configuration loaded", "path", cl.filePath, "format", format,
		"gateways", len(cfg.Gateways), "groups", len(cfg.Groups), "profiles", len(cfg.Profiles))
	return cfg, nil
}

// FormatFor maps a file name to its configuration format. Anything that is
// not YAML or TOML is read as INI.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatINI
	}
}

// ParseConfiguration parses data in the given format.
func ParseConfiguration(format string, data []byte) (domain.Configuration, error) {
	switch format {
	case FormatINI:
		return parseINI(data)
	case FormatYAML:
		return parseYAML(bytes.NewReader(data))
	case FormatTOML:
		return parseTOML(data)
	default:
		return domain.Configuration{}, fmt.Errorf("unsupported configuration format %q", format)
	}
}

// Section kinds of the INI layout, `[<kind> <name>]`.
const (
	sectionGateway = "gateway"
	sectionGroup   = "group"
	sectionProfile = "profile"
)

// splitSection splits `gateway bastion` into kind and name. Sections that
// are not of a known kind or have no name are reported as not ok.
func splitSection(section string) (kind, name string, ok bool) {
	kind, name, found := strings.Cut(strings.TrimSpace(section), " ")
	if !found {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	switch kind {
	case sectionGateway, sectionGroup, sectionProfile:
		return kind, name, true
	default:
		return "", "", false
	}
}

func validateGateway(gw domain.Gateway) error {
	section := sectionGateway + " " + gw.Name
	if strings.TrimSpace(gw.Hostname) == "" {
		return &domain.ConfigError{Section: section, Key: "hostname", Reason: "required option is missing"}
	}
	if gw.Port < 1 || gw.Port > 65535 {
		return &domain.ConfigError{Section: section, Key: "port", Reason: fmt.Sprintf("invalid port %d", gw.Port)}
	}
	return nil
}

func validateGroup(g domain.Group) error {
	if strings.TrimSpace(g.Gateway) == "" {
		return &domain.ConfigError{Section: sectionGroup + " " + g.Name, Key: "gateway", Reason: "required option is missing"}
	}
	return nil
}

// splitRegions splits a comma separated region list, dropping empty entries.
func splitRegions(values ...string) []string {
	regions := make([]string, 0, len(values))
	for _, v := range values {
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regions = append(regions, r)
			}
		}
	}
	return regions
}
