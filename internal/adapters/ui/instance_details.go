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
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

type InstanceDetails struct {
	*tview.TextView
}

func NewInstanceDetails() *InstanceDetails {
	details := &InstanceDetails{
		TextView: tview.NewTextView(),
	}
	details.build()
	return details
}

func (d *InstanceDetails) build() {
	d.TextView.SetDynamicColors(true).
		SetWrap(true).
		SetBorder(true).
		SetTitle("Details").
		SetBorderColor(tcell.Color238).
		SetTitleColor(tcell.Color250)
}

// UpdateInstance renders inst and, when planning succeeded, its route.
// planErr is shown instead of the route when non-nil.
func (d *InstanceDetails) UpdateInstance(inst domain.Instance, res *services.Resolution, argv []string, planErr error) {
	d.TextView.SetText(renderDetails(inst, res, argv, planErr))
}

func (d *InstanceDetails) ShowEmpty() {
	d.TextView.SetText("No cached instances match the current filter.")
}

func renderDetails(inst domain.Instance, res *services.Resolution, argv []string, planErr error) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("[::b]%s[-]\n\n", inst.ID))
	text.WriteString(fmt.Sprintf("Profile: [white]%s[-]\nRegion: [white]%s[-]\n", orDash(inst.ProfileName), orDash(inst.Region)))
	text.WriteString(fmt.Sprintf("Private: [white]%s[-]\nPublic: [white]%s[-]\n", orDash(inst.PrivateAddress), orDash(inst.PublicAddress)))
	if inst.IsClassic() {
		text.WriteString("Network: [white]EC2-Classic[-]\n")
	} else {
		text.WriteString(fmt.Sprintf("VPC: [white]%s[-]\nSubnet: [white]%s[-]\n", inst.VpcID, orDash(inst.SubnetID)))
	}

	text.WriteString("\n[::b]Route:[-]\n")
	switch {
	case planErr != nil:
		text.WriteString(fmt.Sprintf("  [red]%v[-]\n", planErr))
	case res != nil && res.Gateway != nil:
		text.WriteString(fmt.Sprintf("  via gateway [white]%s[-] (%s)\n", res.Gateway.Name, res.Gateway.Hostname))
	case res != nil:
		text.WriteString("  direct to public address\n")
	}
	if len(argv) > 0 {
		text.WriteString(fmt.Sprintf("  [#8A8A8A]%s[-]\n", tview.Escape(strings.Join(argv, " "))))
	}
	return text.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
