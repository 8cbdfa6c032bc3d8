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

package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

// DefaultPort is the port the picker connects to.
const DefaultPort = 22

const (
	idWidth      = 20
	profileWidth = 14
	regionWidth  = 15
	addressWidth = 16
)

// cellPad pads or truncates s so its display width is exactly width cells.
func cellPad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func formatInstanceLine(inst domain.Instance) string {
	network := "classic"
	if !inst.IsClassic() {
		network = inst.VpcID
	}
	public := inst.PublicAddress
	if public == "" {
		public = "-"
	}
	return strings.Join([]string{
		cellPad(inst.ID, idWidth),
		cellPad(inst.ProfileName, profileWidth),
		cellPad(inst.Region, regionWidth),
		cellPad(inst.PrivateAddress, addressWidth),
		cellPad(public, addressWidth),
		network,
	}, " ")
}

// filterInstances keeps instances whose fields contain every word of query.
func filterInstances(instances []domain.Instance, query string) []domain.Instance {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return instances
	}

	var out []domain.Instance
	for _, inst := range instances {
		haystack := strings.ToLower(strings.Join([]string{
			inst.ID, inst.ProfileName, inst.Region, inst.PrivateAddress,
			inst.PublicAddress, inst.VpcID, inst.SubnetID,
		}, " "))
		match := true
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, inst)
		}
	}
	return out
}
