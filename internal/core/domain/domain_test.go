package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewInstanceFromRecord(t *testing.T) {
	vpc := InstanceRecord{
		InstanceID:       "i-10ca9425",
		PrivateIPAddress: "10.1.2.3",
		PublicIPAddress:  "54.1.2.3",
		VpcID:            "vpc-bbe848de",
		SubnetID:         "subnet-b5bc10ec",
	}
	inst, err := NewInstanceFromRecord(vpc, "testing", "us-west-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.IsClassic() {
		t.Fatalf("expected VPC instance")
	}
	if inst.SubnetID != "subnet-b5bc10ec" || inst.ProfileName != "testing" || inst.Region != "us-west-1" {
		t.Fatalf("unexpected instance: %+v", inst)
	}

	classic := InstanceRecord{InstanceID: "i-1", PrivateIPAddress: "10.0.0.1", SubnetID: "subnet-1"}
	inst, err = NewInstanceFromRecord(classic, "p", "r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inst.IsClassic() {
		t.Fatalf("expected classic instance")
	}
	if inst.SubnetID != "" {
		t.Fatalf("subnet should be dropped outside a VPC, got %q", inst.SubnetID)
	}

	if _, err := NewInstanceFromRecord(InstanceRecord{InstanceID: "i-2"}, "p", "r"); err == nil {
		t.Fatalf("expected error for record without private address")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"not found", fmt.Errorf("lookup i-1: %w", ErrNotFound), ExitNotFound},
		{"unreachable", ErrUnreachable, ExitUnreachable},
		{"config", fmt.Errorf("wrap: %w", &ConfigError{Section: "group web", Key: "gateway"}), ExitConfigError},
		{"cache", &CacheError{Op: "append", Path: "/x", Err: errors.New("disk full")}, ExitCacheError},
		{"credentials", &CredentialError{Profile: "p", Err: errors.New("expired")}, ExitCredentials},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Section: "group web", Key: "gateway", Reason: `gateway "bastion" is not defined`}
	want := `configuration error in [group web] key "gateway": gateway "bastion" is not defined`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
