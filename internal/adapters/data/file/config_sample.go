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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const sampleINI = `# boosh configuration
#
# Groups are tried in file order; the first group whose keys all match the
# instance picks the gateway. A group without keys matches every instance.

[gateway bastion]
hostname = bastion.example.com
port = 22
user = ec2-user
identity_file = ~/.ssh/bastion.pem
# ssh_options = -o StrictHostKeyChecking=no
# use_netcat = true
# netcat_path = /usr/bin/nc

[profile default]
regions = us-east-1,us-west-2

[group default-vpc]
profile = default
ec2_classic = false
gateway = bastion
`

const sampleYAML = `# boosh configuration
#
# Groups are tried in list order; the first group whose keys all match the
# instance picks the gateway. A group without keys matches every instance.

gateways:
  bastion:
    hostname: bastion.example.com
    port: 22
    user: ec2-user
    identity_file: ~/.ssh/bastion.pem
    # ssh_options: -o StrictHostKeyChecking=no
    # use_netcat: true

profiles:
  default:
    regions: [us-east-1, us-west-2]

groups:
  - name: default-vpc
    profile: default
    ec2_classic: false
    gateway: bastion
`

const sampleTOML = `# boosh configuration
#
# Groups are tried in definition order; the first group whose keys all match
# the instance picks the gateway. A group without keys matches every instance.

[gateways.bastion]
hostname = "bastion.example.com"
port = 22
user = "ec2-user"
identity_file = "~/.ssh/bastion.pem"
# ssh_options = "-o StrictHostKeyChecking=no"
# use_netcat = true

[profiles.default]
regions = ["us-east-1", "us-west-2"]

[[groups]]
name = "default-vpc"
profile = "default"
ec2_classic = false
gateway = "bastion"
`

// SampleConfiguration returns the commented sample for format.
func SampleConfiguration(format string) string {
	switch format {
	case FormatYAML:
		return sampleYAML
	case FormatTOML:
		return sampleTOML
	default:
		return sampleINI
	}
}

// InitConfig writes a sample configuration to path in the format its
// extension selects. An existing file is left alone and false is returned.
func InitConfig(logger *zap.SugaredLogger, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		logger.Infow("configuration already exists", "path", path)
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create sample config: %w", err)
	}
	if _, err := f.WriteString(SampleConfiguration(FormatFor(path))); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write sample config: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}

	logger.Infow("sample configuration written", "path", path)
	return true, nil
}
