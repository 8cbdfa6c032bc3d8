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
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// cacheRecord is the JSON half of a cache line. Fields are declared in key
// order so the encoding is byte-stable.
type cacheRecord struct {
	PrivateIPAddress string `json:"private_ip_address,omitempty"`
	ProfileName      string `json:"profile_name,omitempty"`
	PublicIPAddress  string `json:"public_ip_address,omitempty"`
	Region           string `json:"region,omitempty"`
	SubnetID         string `json:"subnet_id,omitempty"`
	VpcID            string `json:"vpc_id,omitempty"`
}

// FormatCacheLine renders inst as `<id> <json>` without a trailing newline.
// Non-ASCII characters are written as \uXXXX escapes.
func FormatCacheLine(inst domain.Instance) (string, error) {
	rec := cacheRecord{
		PrivateIPAddress: inst.PrivateAddress,
		ProfileName:      inst.ProfileName,
		PublicIPAddress:  inst.PublicAddress,
		Region:           inst.Region,
		SubnetID:         inst.SubnetID,
		VpcID:            inst.VpcID,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", err
	}
	return inst.ID + " " + escapeNonASCII(strings.TrimRight(buf.String(), "\n")), nil
}

// escapeNonASCII rewrites every rune above U+007F as a lowercase \uXXXX
// escape, using a surrogate pair outside the basic multilingual plane.
func escapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		if r > 0xffff {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, "\\u%04x\\u%04x", hi, lo)
			continue
		}
		fmt.Fprintf(&b, "\\u%04x", r)
	}
	return b.String()
}

// ParseCacheLine is the inverse of FormatCacheLine. Unknown keys and a
// missing private_ip_address are errors.
func ParseCacheLine(line string) (domain.Instance, error) {
	id, data, ok := strings.Cut(strings.TrimRight(line, "\r\n"), " ")
	if !ok || id == "" {
		return domain.Instance{}, fmt.Errorf("malformed cache line %q", line)
	}

	var rec cacheRecord
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return domain.Instance{}, fmt.Errorf("failed to parse cache record for %s: %w", id, err)
	}
	if dec.More() {
		return domain.Instance{}, fmt.Errorf("trailing data after cache record for %s", id)
	}
	if rec.PrivateIPAddress == "" {
		return domain.Instance{}, fmt.Errorf("cache record for %s has no private_ip_address", id)
	}

	return domain.Instance{
		ID:             id,
		ProfileName:    rec.ProfileName,
		Region:         rec.Region,
		PrivateAddress: rec.PrivateIPAddress,
		PublicAddress:  rec.PublicIPAddress,
		VpcID:          rec.VpcID,
		SubnetID:       rec.SubnetID,
	}, nil
}

type instanceCache struct {
	path   string
	logger *zap.SugaredLogger
}

// NewInstanceCache returns a line-oriented cache stored at path.
func NewInstanceCache(logger *zap.SugaredLogger, path string) *instanceCache {
	return &instanceCache{path: path, logger: logger}
}

// Lookup returns the first record for id in file order. A missing file is a miss.
func (c *instanceCache) Lookup(id string) (domain.Instance, bool, error) {
	var (
		found domain.Instance
		ok    bool
	)
	err := c.scan(func(lineID, line string) (bool, error) {
		if lineID != id {
			return true, nil
		}
		inst, err := ParseCacheLine(line)
		if err != nil {
			return false, &domain.CacheError{Op: "parse", Path: c.path, Err: err}
		}
		found, ok = inst, true
		return false, nil
	})
	if err != nil {
		return domain.Instance{}, false, err
	}
	return found, ok, nil
}

// List returns every cached instance, keeping the first record per id.
// Unparseable lines are skipped.
func (c *instanceCache) List() ([]domain.Instance, error) {
	seen := make(map[string]struct{})
	instances := make([]domain.Instance, 0)
	err := c.scan(func(lineID, line string) (bool, error) {
		if _, dup := seen[lineID]; dup {
			return true, nil
		}
		inst, err := ParseCacheLine(line)
		if err != nil {
			c.logger.Warnw("skipping malformed cache line", "path", c.path, "error", err)
			return true, nil
		}
		seen[lineID] = struct{}{}
		instances = append(instances, inst)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// Append adds inst as a new line, creating the cache directory when needed.
func (c *instanceCache) Append(inst domain.Instance) error {
	line, err := FormatCacheLine(inst)
	if err != nil {
		return &domain.CacheError{Op: "encode", Path: c.path, Err: err}
	}

	err = c.appendLine(line)
	if errors.Is(err, fs.ErrNotExist) {
		if mkErr := os.MkdirAll(filepath.Dir(c.path), 0o700); mkErr != nil {
			return &domain.CacheError{Op: "mkdir", Path: filepath.Dir(c.path), Err: mkErr}
		}
		err = c.appendLine(line)
	}
	if err != nil {
		return &domain.CacheError{Op: "append", Path: c.path, Err: err}
	}

	c.logger.Debugw("cached instance", "instance_id", inst.ID, "path", c.path)
	return nil
}

func (c *instanceCache) appendLine(line string) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	// One write per record keeps concurrent appenders from interleaving.
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// scan feeds every record line to fn until fn returns false or an error.
func (c *instanceCache) scan(fn func(id, line string) (bool, error)) error {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.CacheError{Op: "read", Path: c.path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// Skip empty lines and comments
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		id, _, _ := strings.Cut(trimmed, " ")
		more, err := fn(id, trimmed)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return &domain.CacheError{Op: "read", Path: c.path, Err: err}
	}
	return nil
}
