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

package domain

import "fmt"

// Instance is the subset of a cloud instance needed to open a connection to it.
type Instance struct {
	ID             string
	ProfileName    string
	Region         string
	PrivateAddress string
	PublicAddress  string
	VpcID          string
	SubnetID       string
}

// IsClassic reports whether the instance lives outside any VPC.
func (i Instance) IsClassic() bool {
	return i.VpcID == ""
}

func (i Instance) String() string {
	return fmt.Sprintf("Instance(%s, profile=%s, region=%s)", i.ID, i.ProfileName, i.Region)
}

// InstanceRecord is a raw describe-instance result as returned by a directory.
type InstanceRecord struct {
	InstanceID       string
	PrivateIPAddress string
	PublicIPAddress  string
	VpcID            string
	SubnetID         string
}

// NewInstanceFromRecord builds an Instance owned by profile in region.
// Subnet information is only kept for VPC instances.
func NewInstanceFromRecord(rec InstanceRecord, profile, region string) (Instance, error) {
	if rec.InstanceID == "" {
		return Instance{}, fmt.Errorf("instance record has no instance id")
	}
	if rec.PrivateIPAddress == "" {
		return Instance{}, fmt.Errorf("instance %s has no private address", rec.InstanceID)
	}

	inst := Instance{
		ID:             rec.InstanceID,
		ProfileName:    profile,
		Region:         region,
		PrivateAddress: rec.PrivateIPAddress,
		PublicAddress:  rec.PublicIPAddress,
	}
	if rec.VpcID != "" {
		inst.VpcID = rec.VpcID
		inst.SubnetID = rec.SubnetID
	}
	return inst, nil
}
