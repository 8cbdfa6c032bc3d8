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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func parseOutputFormat(s string) (string, error) {
	switch strings.ToLower(s) {
	case outputText, "":
		return outputText, nil
	case outputJSON:
		return outputJSON, nil
	case outputYAML, "yml":
		return outputYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

type instanceView struct {
	InstanceID     string `json:"instance_id" yaml:"instance_id"`
	Profile        string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Region         string `json:"region,omitempty" yaml:"region,omitempty"`
	PrivateAddress string `json:"private_address" yaml:"private_address"`
	PublicAddress  string `json:"public_address,omitempty" yaml:"public_address,omitempty"`
	VpcID          string `json:"vpc_id,omitempty" yaml:"vpc_id,omitempty"`
	SubnetID       string `json:"subnet_id,omitempty" yaml:"subnet_id,omitempty"`
}

type resolutionView struct {
	Instance    instanceView `json:"instance" yaml:"instance"`
	FromCache   bool         `json:"from_cache" yaml:"from_cache"`
	Mode        string       `json:"mode" yaml:"mode"`
	Gateway     string       `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	GatewayHost string       `json:"gateway_host,omitempty" yaml:"gateway_host,omitempty"`
	Command     []string     `json:"command" yaml:"command"`
	// SSHProxyCommand is the ProxyCommand the ssh client config applies to
	// the instance id, if any.
	SSHProxyCommand string `json:"ssh_proxy_command,omitempty" yaml:"ssh_proxy_command,omitempty"`
}

func newInstanceView(inst domain.Instance) instanceView {
	return instanceView{
		InstanceID:     inst.ID,
		Profile:        inst.ProfileName,
		Region:         inst.Region,
		PrivateAddress: inst.PrivateAddress,
		PublicAddress:  inst.PublicAddress,
		VpcID:          inst.VpcID,
		SubnetID:       inst.SubnetID,
	}
}

func newResolutionView(res services.Resolution, argv []string) resolutionView {
	view := resolutionView{
		Instance:    newInstanceView(res.Instance),
		FromCache:   res.FromCache,
		Mode:        string(res.Plan.Mode),
		GatewayHost: res.Plan.GatewayHost,
		Command:     argv,
	}
	if res.Gateway != nil {
		view.Gateway = res.Gateway.Name
	}
	return view
}

func writeResolution(w io.Writer, format string, view resolutionView) error {
	switch format {
	case outputJSON:
		return writeJSON(w, view)
	case outputYAML:
		return writeYAML(w, view)
	}

	source := "directory"
	if view.FromCache {
		source = "cache"
	}
	gateway := view.Gateway
	if gateway == "" {
		gateway = "-"
	} else if view.GatewayHost != "" {
		gateway = fmt.Sprintf("%s (%s)", gateway, view.GatewayHost)
	}
	rows := [][2]string{
		{"instance", view.Instance.InstanceID},
		{"profile", view.Instance.Profile},
		{"region", view.Instance.Region},
		{"private", view.Instance.PrivateAddress},
		{"public", view.Instance.PublicAddress},
		{"vpc", view.Instance.VpcID},
		{"subnet", view.Instance.SubnetID},
		{"source", source},
		{"mode", view.Mode},
		{"gateway", gateway},
		{"command", shellquote.Join(view.Command...)},
		{"ssh route", view.SSHProxyCommand},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", runewidth.FillRight(row[0]+":", 10), row[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeInstances(w io.Writer, format string, instances []domain.Instance) error {
	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, newInstanceView(inst))
	}
	switch format {
	case outputJSON:
		return writeJSON(w, views)
	case outputYAML:
		return writeYAML(w, views)
	}

	headers := []string{"ID", "PROFILE", "REGION", "PRIVATE", "PUBLIC", "VPC"}
	rows := [][]string{headers}
	for _, v := range views {
		rows = append(rows, []string{v.InstanceID, v.Profile, v.Region, v.PrivateAddress, dash(v.PublicAddress), dash(v.VpcID)})
	}
	return writeTable(w, rows)
}

// writeTable left-aligns columns by display width.
func writeTable(w io.Writer, rows [][]string) error {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
