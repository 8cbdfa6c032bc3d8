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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// CommandFactory builds the process that runs the aws CLI with args.
type CommandFactory func(ctx context.Context, args ...string) *exec.Cmd

// Markers in aws CLI stderr that mean the profile itself is unusable.
var cliCredentialMarkers = []string{
	"could not be found",
	"Unable to locate credentials",
	"AuthFailure",
	"UnauthorizedOperation",
	"InvalidClientTokenId",
	"ExpiredToken",
	"SignatureDoesNotMatch",
	"The SSO session associated with this profile has expired",
}

var cliNotFoundMarkers = []string{
	"InvalidInstanceID.NotFound",
	"InvalidInstanceID.Malformed",
}

type describeInstancesJSON struct {
	Reservations []struct {
		Instances []struct {
			InstanceID       string `json:"InstanceId"`
			PrivateIPAddress string `json:"PrivateIpAddress"`
			PublicIPAddress  string `json:"PublicIpAddress"`
			VpcID            string `json:"VpcId"`
			SubnetID         string `json:"SubnetId"`
		} `json:"Instances"`
	} `json:"Reservations"`
}

// CLIDirectory describes instances by running `aws ec2 describe-instances`.
type CLIDirectory struct {
	newCommand CommandFactory
	logger     *zap.SugaredLogger
}

// NewCLIDirectory returns a directory backed by the aws binary on PATH.
func NewCLIDirectory(logger *zap.SugaredLogger) *CLIDirectory {
	return NewCLIDirectoryWithCommand(logger, func(ctx context.Context, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "aws", args...)
	})
}

// NewCLIDirectoryWithCommand returns a directory that runs newCommand.
func NewCLIDirectoryWithCommand(logger *zap.SugaredLogger, newCommand CommandFactory) *CLIDirectory {
	return &CLIDirectory{newCommand: newCommand, logger: logger}
}

// DescribeInstance returns the record for id in profile/region.
func (d *CLIDirectory) DescribeInstance(ctx context.Context, profile, region, id string) (domain.InstanceRecord, error) {
	cmd := d.newCommand(ctx,
		"--profile", profile,
		"--region", region,
		"ec2", "describe-instances",
		"--instance-ids", id,
		"--output", "json",
	)
	if cmd == nil {
		return domain.InstanceRecord{}, errors.New("aws command factory returned nil")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return domain.InstanceRecord{}, ctx.Err()
		}
		return domain.InstanceRecord{}, classifyCLIError(profile, stderr.String(), err)
	}

	var out describeInstancesJSON
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return domain.InstanceRecord{}, fmt.Errorf("failed to parse aws output: %w", err)
	}

	for _, reservation := range out.Reservations {
		for _, inst := range reservation.Instances {
			if inst.InstanceID != id {
				continue
			}
			return domain.InstanceRecord{
				InstanceID:       inst.InstanceID,
				PrivateIPAddress: inst.PrivateIPAddress,
				PublicIPAddress:  inst.PublicIPAddress,
				VpcID:            inst.VpcID,
				SubnetID:         inst.SubnetID,
			}, nil
		}
	}

	d.logger.Debugw("empty describe result", "instance_id", id, "profile", profile, "region", region)
	return domain.InstanceRecord{}, domain.ErrInstanceNotFound
}

func classifyCLIError(profile, stderr string, err error) error {
	msg := strings.TrimSpace(stderr)
	for _, marker := range cliNotFoundMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%s: %w", msg, domain.ErrInstanceNotFound)
		}
	}
	for _, marker := range cliCredentialMarkers {
		if strings.Contains(msg, marker) {
			return &domain.CredentialError{Profile: profile, Err: errors.New(msg)}
		}
	}
	if msg == "" {
		return fmt.Errorf("aws cli failed: %w", err)
	}
	return fmt.Errorf("aws cli failed: %s: %w", msg, err)
}
