package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/boosh-ssh/boosh/internal/adapters/aws"
	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

func gatewayResolution() services.Resolution {
	return services.Resolution{
		Instance: domain.Instance{
			ID:             "i-10ca9425",
			ProfileName:    "testing",
			Region:         "us-west-1",
			PrivateAddress: "10.0.1.15",
			VpcID:          "vpc-bbe848de",
			SubnetID:       "subnet-b5bc10ec",
		},
		FromCache: true,
		Gateway:   &domain.Gateway{Name: "testing", Hostname: "bastion.example.org"},
		Plan:      domain.ConnectionPlan{Mode: domain.PlanGatewayTunnel, Gateway: "testing", GatewayHost: "bastion.example.org"},
	}
}

var gatewayArgv = []string{"ssh", "-p22", "-W", "10.0.1.15:22", "bastion.example.org"}

func TestParsePort(t *testing.T) {
	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{[]string{"i-1"}, 22, false},
		{[]string{"i-1", "2222"}, 2222, false},
		{[]string{"i-1", "0"}, 0, true},
		{[]string{"i-1", "65536"}, 0, true},
		{[]string{"i-1", "ssh"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := parsePort(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]string{"": outputText, "TEXT": outputText, "json": outputJSON, "yml": outputYAML} {
		got, err := parseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseOutputFormat("xml")
	assert.Error(t, err)
}

func TestWriteResolution_Text(t *testing.T) {
	view := newResolutionView(gatewayResolution(), gatewayArgv)
	view.SSHProxyCommand = "/usr/local/bin/boosh %h %p"

	var out bytes.Buffer
	require.NoError(t, writeResolution(&out, outputText, view))

	want := strings.Join([]string{
		"instance:  i-10ca9425",
		"profile:   testing",
		"region:    us-west-1",
		"private:   10.0.1.15",
		"vpc:       vpc-bbe848de",
		"subnet:    subnet-b5bc10ec",
		"source:    cache",
		"mode:      gateway-tunnel",
		"gateway:   testing (bastion.example.org)",
		"command:   ssh -p22 -W 10.0.1.15:22 bastion.example.org",
		"ssh route: /usr/local/bin/boosh %h %p",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("text output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteResolution_Structured(t *testing.T) {
	view := newResolutionView(gatewayResolution(), gatewayArgv)

	var jsonOut bytes.Buffer
	require.NoError(t, writeResolution(&jsonOut, outputJSON, view))
	var fromJSON resolutionView
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &fromJSON))
	assert.Equal(t, view, fromJSON)
	assert.NotContains(t, jsonOut.String(), "public_address")
	assert.NotContains(t, jsonOut.String(), "ssh_proxy_command")
	assert.Contains(t, jsonOut.String(), `"gateway_host": "bastion.example.org"`)

	var yamlOut bytes.Buffer
	require.NoError(t, writeResolution(&yamlOut, outputYAML, view))
	assert.Contains(t, yamlOut.String(), "mode: gateway-tunnel\n")
	assert.Contains(t, yamlOut.String(), "  instance_id: i-10ca9425\n")
	var fromYAML resolutionView
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	assert.Equal(t, view, fromYAML)
}

func TestWriteInstances_Table(t *testing.T) {
	instances := []domain.Instance{
		gatewayResolution().Instance,
		{ID: "i-0abc", ProfileName: "prod", Region: "eu-west-1", PrivateAddress: "10.8.0.4", PublicAddress: "54.0.0.1"},
	}

	var out bytes.Buffer
	require.NoError(t, writeInstances(&out, outputText, instances))

	want := strings.Join([]string{
		"ID          PROFILE  REGION     PRIVATE    PUBLIC    VPC",
		"i-10ca9425  testing  us-west-1  10.0.1.15  -         vpc-bbe848de",
		"i-0abc      prod     eu-west-1  10.8.0.4   54.0.0.1  -",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteInstances_EmptyJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeInstances(&out, outputJSON, nil))
	assert.Equal(t, "[]\n", out.String())
}

func TestExitCode(t *testing.T) {
	a := &app{}

	assert.Equal(t, domain.ExitSuccess, a.exitCode(nil))
	assert.Equal(t, domain.ExitNotFound, a.exitCode(fmt.Errorf("i-1: %w", domain.ErrNotFound)))
	assert.Equal(t, domain.ExitCredentials, a.exitCode(aws.ErrUnknownProfile))
	assert.Equal(t, domain.ExitGeneralError, a.exitCode(errors.New("boom")))
}

func TestDanglingGroups(t *testing.T) {
	cfg := domain.NewConfiguration()
	cfg.Gateways["general"] = domain.NewGateway("general", "general.example.org")
	cfg.Groups = append(cfg.Groups,
		domain.Group{Name: "ok", Gateway: "general"},
		domain.Group{Name: "typo", Gateway: "genral"},
	)

	dangling := danglingGroups(cfg)
	require.Len(t, dangling, 1)
	assert.Equal(t, "typo", dangling[0].Name)
}
