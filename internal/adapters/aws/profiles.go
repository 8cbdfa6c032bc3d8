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

package aws

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

const defaultProfile = "default"

// SharedProfiles lists the profiles of the AWS shared config and
// credentials files.
type SharedProfiles struct {
	configPath      string
	credentialsPath string
	logger          *zap.SugaredLogger
}

// NewSharedProfiles reads the files named by AWS_CONFIG_FILE and
// AWS_SHARED_CREDENTIALS_FILE, or the SDK defaults.
func NewSharedProfiles(logger *zap.SugaredLogger) *SharedProfiles {
	configPath := os.Getenv("AWS_CONFIG_FILE")
	if configPath == "" {
		configPath = config.DefaultSharedConfigFilename()
	}
	credentialsPath := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if credentialsPath == "" {
		credentialsPath = config.DefaultSharedCredentialsFilename()
	}
	return NewSharedProfilesFromFiles(logger, configPath, credentialsPath)
}

// NewSharedProfilesFromFiles reads the given config and credentials files.
func NewSharedProfilesFromFiles(logger *zap.SugaredLogger, configPath, credentialsPath string) *SharedProfiles {
	return &SharedProfiles{configPath: configPath, credentialsPath: credentialsPath, logger: logger}
}

// Profiles returns the sorted union of profile names from both files.
func (p *SharedProfiles) Profiles(_ context.Context) ([]string, error) {
	cfgFile, err := loadShared(p.configPath)
	if err != nil {
		return nil, err
	}
	credFile, err := loadShared(p.credentialsPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, section := range cfgFile.Sections() {
		if name, ok := configProfileName(section.Name()); ok {
			seen[name] = struct{}{}
		}
	}
	for _, section := range credFile.Sections() {
		name := strings.TrimSpace(section.Name())
		if name == ini.DefaultSection || name == "" {
			continue
		}
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	p.logger.Debugw("credential profiles discovered", "count", len(names), "path", p.configPath)
	return names, nil
}

// HasProfile reports whether profile is defined in either file.
func (p *SharedProfiles) HasProfile(ctx context.Context, profile string) (bool, error) {
	names, err := p.Profiles(ctx)
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(names, profile)
	return i < len(names) && names[i] == profile, nil
}

// DefaultRegion returns the region for profile. AWS_REGION and
// AWS_DEFAULT_REGION take precedence over the config file.
func (p *SharedProfiles) DefaultRegion(_ context.Context, profile string) (string, error) {
	for _, env := range []string{"AWS_REGION", "AWS_DEFAULT_REGION"} {
		if region := strings.TrimSpace(os.Getenv(env)); region != "" {
			return region, nil
		}
	}

	cfgFile, err := loadShared(p.configPath)
	if err != nil {
		return "", err
	}
	for _, section := range cfgFile.Sections() {
		name, ok := configProfileName(section.Name())
		if !ok || name != profile {
			continue
		}
		if section.HasKey("region") {
			return strings.TrimSpace(section.Key("region").String()), nil
		}
	}
	return "", nil
}

// configProfileName maps a shared config section to its profile name.
// `[default]` and `[profile name]` are profiles; other kinds such as
// `[sso-session x]` are not.
func configProfileName(section string) (string, bool) {
	section = strings.TrimSpace(section)
	if section == defaultProfile {
		return defaultProfile, true
	}
	kind, name, found := strings.Cut(section, " ")
	if !found || kind != "profile" {
		return "", false
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// loadShared parses an AWS shared file. A missing file is empty.
func loadShared(path string) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		Loose:               true,
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, path)
}
