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

package ssh_config_file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"go.uber.org/zap"
)

const (
	MaxBackups     = 10
	TempSuffix     = ".tmp"
	BackupSuffix   = "boosh.backup"
	SSHConfigPerms = 0o600
	ManagedComment = "# Added by boosh"
)

// ErrHostConflict means the pattern already has a different ProxyCommand.
var ErrHostConflict = errors.New("host pattern already configured with another ProxyCommand")

// FileSystem is the subset of file operations the repository needs.
type FileSystem interface {
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Stat(name string) (os.FileInfo, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	ReadDir(name string) ([]os.DirEntry, error)
	MkdirAll(path string, perm os.FileMode) error
	IsNotExist(err error) bool
}

type osFileSystem struct{}

func (osFileSystem) Open(name string) (*os.File, error) { return os.Open(name) }
func (osFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}
func (osFileSystem) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (osFileSystem) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (osFileSystem) Remove(name string) error                     { return os.Remove(name) }
func (osFileSystem) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }
func (osFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (osFileSystem) IsNotExist(err error) bool                    { return errors.Is(err, fs.ErrNotExist) }

// ProxyHost is a Host block that routes matching aliases through boosh.
type ProxyHost struct {
	Pattern      string
	ProxyCommand string
	User         string
	IdentityFile string
}

// Repository edits an OpenSSH client config file.
type Repository struct {
	configPath string
	fileSystem FileSystem
	logger     *zap.SugaredLogger
}

// NewRepository returns a repository for the config file at configPath.
func NewRepository(logger *zap.SugaredLogger, configPath string) *Repository {
	return NewRepositoryWithFileSystem(logger, configPath, osFileSystem{})
}

// NewRepositoryWithFileSystem is NewRepository with an explicit file system.
func NewRepositoryWithFileSystem(logger *zap.SugaredLogger, configPath string, fileSystem FileSystem) *Repository {
	return &Repository{configPath: configPath, fileSystem: fileSystem, logger: logger}
}

// ProxyCommandFor returns the ProxyCommand that applies to alias, or "".
func (r *Repository) ProxyCommandFor(alias string) (string, error) {
	cfg, _, err := r.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Get(alias, "ProxyCommand")
}

// Install appends a Host block for host.Pattern. It reports false without
// writing when an identical block is already present.
func (r *Repository) Install(host ProxyHost) (bool, error) {
	if strings.TrimSpace(host.Pattern) == "" || strings.TrimSpace(host.ProxyCommand) == "" {
		return false, fmt.Errorf("host pattern and proxy command are required")
	}

	cfg, raw, err := r.loadConfig()
	if err != nil {
		return false, err
	}

	if existing := r.findHostByPattern(cfg, host.Pattern); existing != nil {
		current := proxyCommandOf(existing)
		if current == host.ProxyCommand {
			r.logger.Infow("ssh config already routes pattern through boosh", "pattern", host.Pattern, "path", r.configPath)
			return false, nil
		}
		return false, fmt.Errorf("%s: %w (%q)", host.Pattern, ErrHostConflict, current)
	}

	var content bytes.Buffer
	content.Write(raw)
	if len(raw) > 0 && !bytes.HasSuffix(raw, []byte("\n")) {
		content.WriteString("\n")
	}
	if len(raw) > 0 {
		content.WriteString("\n")
	}
	if err := writeHostBlock(&content, host); err != nil {
		return false, err
	}

	// The result must still be a valid config before it replaces the current file.
	if _, err := ssh_config.DecodeBytes(content.Bytes()); err != nil {
		return false, fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := r.saveConfig(content.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

// writeHostBlock renders host in the usual indented ssh_config layout.
func writeHostBlock(w io.Writer, host ProxyHost) error {
	if _, err := fmt.Fprintf(w, "%s\nHost %s\n", ManagedComment, host.Pattern); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "    ProxyCommand %s\n", host.ProxyCommand); err != nil {
		return err
	}
	if host.User != "" {
		if _, err := fmt.Fprintf(w, "    User %s\n", host.User); err != nil {
			return err
		}
	}
	if host.IdentityFile != "" {
		if _, err := fmt.Fprintf(w, "    IdentityFile %s\n", host.IdentityFile); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig reads and parses the SSH config file.
// If the file does not exist, it returns an empty config without error to support first-run behavior.
func (r *Repository) loadConfig() (*ssh_config.Config, []byte, error) {
	file, err := r.fileSystem.Open(r.configPath)
	if err != nil {
		if r.fileSystem.IsNotExist(err) {
			return &ssh_config.Config{Hosts: []*ssh_config.Host{}}, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			r.logger.Warnf("failed to close config file: %v", cerr)
		}
	}()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ssh_config.DecodeBytes(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, raw, nil
}

// saveConfig writes the SSH config back to the file with atomic operations and backup management.
func (r *Repository) saveConfig(content []byte) error {
	configDir := filepath.Dir(r.configPath)
	if err := r.fileSystem.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tempFile, err := r.createTempFile(configDir)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if removeErr := r.fileSystem.Remove(tempFile); removeErr != nil && !r.fileSystem.IsNotExist(removeErr) {
			r.logger.Warnf("failed to remove temporary file %s: %v", tempFile, removeErr)
		}
	}()

	if err := r.writeConfigToFile(tempFile, content); err != nil {
		return fmt.Errorf("failed to write config to temporary file: %w", err)
	}

	if err := r.createBackup(); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := r.fileSystem.Rename(tempFile, r.configPath); err != nil {
		return fmt.Errorf("failed to atomically replace config file: %w", err)
	}

	r.logger.Infow("ssh config updated", "path", r.configPath)
	return nil
}

// createTempFile creates an owner-only temporary file in dir. It is renamed
// over the config, so its mode becomes the config's mode.
func (r *Repository) createTempFile(dir string) (string, error) {
	timestamp := time.Now().Format("20060102150405")
	tempFilePath := filepath.Join(dir, fmt.Sprintf("config%s%s", timestamp, TempSuffix))

	file, err := r.fileSystem.OpenFile(tempFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, SSHConfigPerms)
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		r.logger.Warnf("failed to close temporary file %s: %v", tempFilePath, err)
	}
	return tempFilePath, nil
}

func (r *Repository) writeConfigToFile(filePath string, content []byte) error {
	file, err := r.fileSystem.OpenFile(filePath, os.O_WRONLY|os.O_TRUNC, SSHConfigPerms)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			r.logger.Warnf("failed to close file %s: %v", filePath, cerr)
		}
	}()

	if _, err := file.Write(content); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}
	return file.Sync()
}

// createBackup creates a timestamped backup of the current config file
// and keeps at most MaxBackups of them.
func (r *Repository) createBackup() error {
	if _, err := r.fileSystem.Stat(r.configPath); r.fileSystem.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check if config file exists: %w", err)
	}

	backupPath := fmt.Sprintf("%s-%d-%s", r.configPath, time.Now().UnixNano(), BackupSuffix)
	if err := r.copyFile(r.configPath, backupPath); err != nil {
		return fmt.Errorf("failed to copy config to backup: %w", err)
	}
	r.logger.Infow("created backup", "path", backupPath)

	configDir := filepath.Dir(r.configPath)
	backupFiles, err := r.findBackupFiles(configDir)
	if err != nil {
		return err
	}
	if len(backupFiles) <= MaxBackups {
		return nil
	}

	// Names embed the creation time, newest first.
	sort.Slice(backupFiles, func(i, j int) bool {
		return backupFiles[i].Name() > backupFiles[j].Name()
	})
	for _, old := range backupFiles[MaxBackups:] {
		oldPath := filepath.Join(configDir, old.Name())
		if err := r.fileSystem.Remove(oldPath); err != nil {
			r.logger.Warnf("failed to remove old backup %s: %v", oldPath, err)
			continue
		}
		r.logger.Debugw("removed old backup", "path", oldPath)
	}
	return nil
}

func (r *Repository) copyFile(src, dst string) error {
	srcFile, err := r.fileSystem.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := srcFile.Close(); cerr != nil {
			r.logger.Warnf("failed to close source file %s: %v", src, cerr)
		}
	}()

	srcInfo, err := r.fileSystem.Stat(src)
	if err != nil {
		return err
	}

	destFile, err := r.fileSystem.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := destFile.Close(); cerr != nil {
			r.logger.Warnf("failed to close destination file %s: %v", dst, cerr)
		}
	}()

	if _, err := io.Copy(destFile, srcFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// findBackupFiles finds the backups of this config file.
func (r *Repository) findBackupFiles(dir string) ([]os.DirEntry, error) {
	entries, err := r.fileSystem.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	prefix := filepath.Base(r.configPath) + "-"
	var backups []os.DirEntry
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, BackupSuffix) {
			backups = append(backups, entry)
		}
	}
	return backups, nil
}

// findHostByPattern returns the explicit Host block declaring pattern.
func (r *Repository) findHostByPattern(cfg *ssh_config.Config, pattern string) *ssh_config.Host {
	for _, host := range cfg.Hosts {
		for _, p := range host.Patterns {
			if p.String() == pattern {
				return host
			}
		}
	}
	return nil
}

func proxyCommandOf(host *ssh_config.Host) string {
	for _, node := range host.Nodes {
		if kv, ok := node.(*ssh_config.KV); ok && strings.EqualFold(kv.Key, "ProxyCommand") {
			return kv.Value
		}
	}
	return ""
}
