package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSConfig_Defaults(t *testing.T) {
	t.Setenv(EnvHostsFile, "")
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLogFile, "")
	c := NewOSConfigWithHome("/home/ops")

	assert.Equal(t, "/home/ops/.cache/boosh/hosts", c.CachePath())
	assert.Equal(t, "/home/ops/.aws/boosh", c.ConfigPath())
	assert.Equal(t, "/home/ops/.cache/boosh/boosh.log", c.LogPath())
}

func TestOSConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHostsFile, filepath.Join(dir, "hosts"))
	t.Setenv(EnvConfig, "~/boosh.yaml")
	t.Setenv(EnvLogFile, filepath.Join(dir, "log"))
	c := NewOSConfigWithHome("/home/ops")

	assert.Equal(t, filepath.Join(dir, "hosts"), c.CachePath())
	assert.Equal(t, "/home/ops/boosh.yaml", c.ConfigPath())
	assert.Equal(t, filepath.Join(dir, "log"), c.LogPath())
}

func TestOSConfig_ExpandPath(t *testing.T) {
	c := NewOSConfigWithHome("/home/ops")

	tests := []struct {
		in, want string
	}{
		{"~", "/home/ops"},
		{"~/.ssh/id_rsa", "/home/ops/.ssh/id_rsa"},
		{"/etc/boosh", "/etc/boosh"},
		{"relative/key", "relative/key"},
		{"~other/key", "~other/key"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ExpandPath(tt.in), tt.in)
	}
}
