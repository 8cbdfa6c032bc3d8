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
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// Provider error codes that mean the instance is not in the queried region.
var notFoundCodes = map[string]struct{}{
	"InvalidInstanceID.NotFound":  {},
	"InvalidInstanceID.Malformed": {},
}

// Provider error codes that mean the profile cannot be used at all.
var credentialCodes = map[string]struct{}{
	"AuthFailure":           {},
	"UnauthorizedOperation": {},
	"InvalidClientTokenId":  {},
	"SignatureDoesNotMatch": {},
	"ExpiredToken":          {},
	"RequestExpired":        {},
	"OptInRequired":         {},
}

// DescribeInstancesAPI is the EC2 operation used by the directory.
type DescribeInstancesAPI interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// ClientFactory builds an EC2 client for a profile and region.
type ClientFactory func(ctx context.Context, profile, region string) (DescribeInstancesAPI, error)

// Directory describes instances through the EC2 API.
type Directory struct {
	newClient ClientFactory
	logger    *zap.SugaredLogger
}

// NewDirectory returns a directory using the shared AWS configuration.
func NewDirectory(logger *zap.SugaredLogger) *Directory {
	return NewDirectoryWithFactory(logger, NewEC2Client)
}

// NewDirectoryWithFactory returns a directory using newClient.
func NewDirectoryWithFactory(logger *zap.SugaredLogger, newClient ClientFactory) *Directory {
	return &Directory{newClient: newClient, logger: logger}
}

// NewEC2Client loads the profile's configuration and checks that it can
// produce credentials before any request is made.
func NewEC2Client(ctx context.Context, profile, region string) (DescribeInstancesAPI, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	return ec2.NewFromConfig(cfg), nil
}

// LoadConfig loads the SDK configuration for profile and verifies its credentials.
func LoadConfig(ctx context.Context, profile, region string) (awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithSharedConfigProfile(profile)}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, &domain.CredentialError{Profile: profile, Err: err}
	}
	if cfg.Credentials == nil {
		return awssdk.Config{}, &domain.CredentialError{Profile: profile, Err: errors.New("no credential provider")}
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		if ctx.Err() != nil {
			return awssdk.Config{}, ctx.Err()
		}
		return awssdk.Config{}, &domain.CredentialError{Profile: profile, Err: err}
	}
	return cfg, nil
}

// DescribeInstance returns the record for id in profile/region.
func (d *Directory) DescribeInstance(ctx context.Context, profile, region, id string) (domain.InstanceRecord, error) {
	client, err := d.newClient(ctx, profile, region)
	if err != nil {
		return domain.InstanceRecord{}, err
	}

	out, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return domain.InstanceRecord{}, classifyError(profile, err)
	}

	for _, reservation := range out.Reservations {
		for _, inst := range reservation.Instances {
			if awssdk.ToString(inst.InstanceId) != id {
				continue
			}
			return domain.InstanceRecord{
				InstanceID:       awssdk.ToString(inst.InstanceId),
				PrivateIPAddress: awssdk.ToString(inst.PrivateIpAddress),
				PublicIPAddress:  awssdk.ToString(inst.PublicIpAddress),
				VpcID:            awssdk.ToString(inst.VpcId),
				SubnetID:         awssdk.ToString(inst.SubnetId),
			}, nil
		}
	}

	d.logger.Debugw("empty describe result", "instance_id", id, "profile", profile, "region", region)
	return domain.InstanceRecord{}, domain.ErrInstanceNotFound
}

// classifyError maps provider API errors onto the directory error contract.
func classifyError(profile string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := notFoundCodes[code]; ok {
			return fmt.Errorf("%s: %w", apiErr.ErrorMessage(), domain.ErrInstanceNotFound)
		}
		if _, ok := credentialCodes[code]; ok {
			return &domain.CredentialError{Profile: profile, Err: err}
		}
	}
	return err
}
