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

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/boosh-ssh/boosh/internal/core/ports"
)

const (
	EnvHostsFile = "BOOSH_HOSTS_FILE"
	EnvConfig    = "BOOSH_CONFIG"
	EnvLogFile   = "BOOSH_LOG_FILE"
)

type OSConfig struct {
	homeDir string
}

func NewOSConfig() (ports.ConfigProvider, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewOSConfigWithHome(home), nil
}

func NewOSConfigWithHome(home string) *OSConfig {
	return &OSConfig{homeDir: home}
}

func (c *OSConfig) HomeDir() string {
	return c.homeDir
}

// CachePath is the instance cache file.
func (c *OSConfig) CachePath() string {
	return c.ExpandPath(c.GetEnvOrDefault(EnvHostsFile, filepath.Join(c.homeDir, ".cache", "boosh", "hosts")))
}

// ConfigPath is the gateway/group configuration file.
func (c *OSConfig) ConfigPath() string {
	return c.ExpandPath(c.GetEnvOrDefault(EnvConfig, filepath.Join(c.homeDir, ".aws", "boosh")))
}

func (c *OSConfig) LogPath() string {
	return c.ExpandPath(c.GetEnvOrDefault(EnvLogFile, filepath.Join(c.homeDir, ".cache", "boosh", "boosh.log")))
}

// ExpandPath replaces a leading ~ with the home directory.
func (c *OSConfig) ExpandPath(path string) string {
	if path == "~" {
		return c.homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(c.homeDir, path[2:])
	}
	return path
}

func (c *OSConfig) GetEnvOrDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}
