package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

type fakeProfileSource struct {
	profiles []string
	regions  map[string]string
	err      error
}

func (f *fakeProfileSource) Profiles(context.Context) ([]string, error) {
	return f.profiles, f.err
}

func (f *fakeProfileSource) DefaultRegion(_ context.Context, profile string) (string, error) {
	return f.regions[profile], nil
}

type describeCall struct {
	Profile string
	Region  string
}

// fakeDirectory answers from a profile/region keyed table and records calls.
type fakeDirectory struct {
	records map[describeCall]domain.InstanceRecord
	errs    map[describeCall]error
	calls   []describeCall
}

func (f *fakeDirectory) DescribeInstance(_ context.Context, profile, region, id string) (domain.InstanceRecord, error) {
	key := describeCall{Profile: profile, Region: region}
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return domain.InstanceRecord{}, err
	}
	if rec, ok := f.records[key]; ok && rec.InstanceID == id {
		return rec, nil
	}
	return domain.InstanceRecord{}, domain.ErrInstanceNotFound
}

func record(id string) domain.InstanceRecord {
	return domain.InstanceRecord{
		InstanceID:       id,
		PrivateIPAddress: "10.0.1.15",
		VpcID:            "vpc-bbe848de",
		SubnetID:         "subnet-b5bc10ec",
	}
}

func TestDirectoryClient_SearchOrderAndFirstMatch(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"prod", "dev", "_path"}}
	dir := &fakeDirectory{records: map[describeCall]domain.InstanceRecord{
		{"prod", "us-east-1"}: record("i-10ca9425"),
	}}
	profiles := map[string]domain.Profile{
		"dev":  {Name: "dev", Regions: []string{"us-west-1", "us-west-2"}},
		"prod": {Name: "prod", Regions: []string{"eu-west-1", "us-east-1", "ap-south-1"}},
	}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	inst, found, err := client.Resolve(context.Background(), "i-10ca9425", profiles, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected instance to be found")
	}
	if inst.ProfileName != "prod" || inst.Region != "us-east-1" {
		t.Fatalf("unexpected origin %s/%s", inst.ProfileName, inst.Region)
	}

	want := []describeCall{
		{"dev", "us-west-1"},
		{"dev", "us-west-2"},
		{"prod", "eu-west-1"},
		{"prod", "us-east-1"},
	}
	if diff := cmp.Diff(want, dir.calls); diff != "" {
		t.Fatalf("unexpected search order (-want +got):\n%s", diff)
	}
}

func TestDirectoryClient_CredentialErrorSkipsProfile(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"alpha", "beta"}}
	dir := &fakeDirectory{
		records: map[describeCall]domain.InstanceRecord{
			{"beta", "us-west-1"}: record("i-1"),
		},
		errs: map[describeCall]error{
			{"alpha", "us-east-1"}: &domain.CredentialError{Profile: "alpha", Err: errors.New("expired token")},
		},
	}
	profiles := map[string]domain.Profile{
		"alpha": {Regions: []string{"us-east-1", "us-west-1"}},
		"beta":  {Regions: []string{"us-west-1"}},
	}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	inst, found, err := client.Resolve(context.Background(), "i-1", profiles, "")
	if err != nil || !found {
		t.Fatalf("Resolve() found=%v err=%v", found, err)
	}
	if inst.ProfileName != "beta" {
		t.Fatalf("expected beta, got %s", inst.ProfileName)
	}

	// alpha's remaining region is never queried after the credential failure.
	want := []describeCall{{"alpha", "us-east-1"}, {"beta", "us-west-1"}}
	if diff := cmp.Diff(want, dir.calls); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestDirectoryClient_TransientErrorContinues(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"prod"}}
	dir := &fakeDirectory{
		records: map[describeCall]domain.InstanceRecord{{"prod", "us-west-2"}: record("i-2")},
		errs:    map[describeCall]error{{"prod", "us-west-1"}: fmt.Errorf("throttled")},
	}
	profiles := map[string]domain.Profile{"prod": {Regions: []string{"us-west-1", "us-west-2"}}}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	inst, found, err := client.Resolve(context.Background(), "i-2", profiles, "")
	if err != nil || !found {
		t.Fatalf("Resolve() found=%v err=%v", found, err)
	}
	if inst.Region != "us-west-2" {
		t.Fatalf("expected us-west-2, got %s", inst.Region)
	}
}

func TestDirectoryClient_Exhausted(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"prod"}, regions: map[string]string{"prod": "us-east-1"}}
	dir := &fakeDirectory{}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	_, found, err := client.Resolve(context.Background(), "i-missing", nil, "")
	if err != nil {
		t.Fatalf("exhausted search must not error, got %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
	if len(dir.calls) != 1 {
		t.Fatalf("expected default region to be searched once, got %v", dir.calls)
	}
}

func TestDirectoryClient_RegionSources(t *testing.T) {
	ps := &fakeProfileSource{
		profiles: []string{"configured", "defaulted", "regionless"},
		regions:  map[string]string{"configured": "ap-south-1", "defaulted": "eu-central-1"},
	}
	profiles := map[string]domain.Profile{"configured": {Regions: []string{"us-west-1"}}}

	t.Run("configured regions then default region", func(t *testing.T) {
		dir := &fakeDirectory{}
		client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
		if _, _, err := client.Resolve(context.Background(), "i-1", profiles, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []describeCall{{"configured", "us-west-1"}, {"defaulted", "eu-central-1"}}
		if diff := cmp.Diff(want, dir.calls); diff != "" {
			t.Fatalf("unexpected calls (-want +got):\n%s", diff)
		}
	})

	t.Run("override replaces every profile's regions", func(t *testing.T) {
		dir := &fakeDirectory{}
		client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
		if _, _, err := client.Resolve(context.Background(), "i-1", profiles, "sa-east-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []describeCall{
			{"configured", "sa-east-1"},
			{"defaulted", "sa-east-1"},
			{"regionless", "sa-east-1"},
		}
		if diff := cmp.Diff(want, dir.calls); diff != "" {
			t.Fatalf("unexpected calls (-want +got):\n%s", diff)
		}
	})
}

func TestDirectoryClient_MergesConfiguredProfiles(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"b"}}
	dir := &fakeDirectory{}
	profiles := map[string]domain.Profile{
		"a":     {Regions: []string{"us-east-1"}},
		"b":     {Regions: []string{"us-east-1"}},
		"_path": {Regions: []string{"us-east-1"}},
	}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	if _, _, err := client.Resolve(context.Background(), "i-1", profiles, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []describeCall{{"a", "us-east-1"}, {"b", "us-east-1"}}
	if diff := cmp.Diff(want, dir.calls); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestDirectoryClient_SkipsIncompleteRecord(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"prod"}}
	dir := &fakeDirectory{records: map[describeCall]domain.InstanceRecord{
		{"prod", "us-east-1"}: {InstanceID: "i-3"},
		{"prod", "us-west-1"}: record("i-3"),
	}}
	profiles := map[string]domain.Profile{"prod": {Regions: []string{"us-east-1", "us-west-1"}}}

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	inst, found, err := client.Resolve(context.Background(), "i-3", profiles, "")
	if err != nil || !found {
		t.Fatalf("Resolve() found=%v err=%v", found, err)
	}
	if inst.Region != "us-west-1" {
		t.Fatalf("expected record with private address, got region %s", inst.Region)
	}
}

func TestDirectoryClient_ProfileListingError(t *testing.T) {
	ps := &fakeProfileSource{err: errors.New("unreadable")}
	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, &fakeDirectory{})
	if _, _, err := client.Resolve(context.Background(), "i-1", nil, ""); err == nil {
		t.Fatalf("expected error when profiles cannot be listed")
	}
}

func TestDirectoryClient_CanceledContext(t *testing.T) {
	ps := &fakeProfileSource{profiles: []string{"prod"}, regions: map[string]string{"prod": "us-east-1"}}
	dir := &fakeDirectory{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewDirectoryClient(zaptest.NewLogger(t).Sugar(), ps, dir)
	_, _, err := client.Resolve(ctx, "i-1", nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(dir.calls) != 0 {
		t.Fatalf("no directory calls expected after cancel, got %v", dir.calls)
	}
}
