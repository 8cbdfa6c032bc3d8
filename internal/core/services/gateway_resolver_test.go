package services

import (
	"errors"
	"testing"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func testInstance() domain.Instance {
	return domain.Instance{
		ID:             "i-10ca9425",
		ProfileName:    "testing",
		Region:         "us-west-1",
		PrivateAddress: "10.0.1.15",
		VpcID:          "vpc-bbe848de",
		SubnetID:       "subnet-b5bc10ec",
	}
}

func testConfiguration(groups ...domain.Group) domain.Configuration {
	cfg := domain.NewConfiguration()
	cfg.Gateways["general"] = domain.NewGateway("general", "general.example.org")
	cfg.Gateways["specific"] = domain.NewGateway("specific", "specific.example.org")
	cfg.Gateways["testing"] = domain.NewGateway("testing", "testing.example.org")
	cfg.Groups = append(cfg.Groups, groups...)
	return cfg
}

func TestResolveGateway_FirstMatchWins(t *testing.T) {
	general := domain.Group{Name: "general", Profile: strPtr("testing"), Gateway: "general"}
	specific := domain.Group{
		Name:     "specific",
		Profile:  strPtr("testing"),
		Region:   strPtr("us-west-1"),
		VpcID:    strPtr("vpc-bbe848de"),
		SubnetID: strPtr("subnet-b5bc10ec"),
		Gateway:  "specific",
	}

	tests := []struct {
		name   string
		groups []domain.Group
		want   string
	}{
		{"general defined first wins", []domain.Group{general, specific}, "general"},
		{"specific defined first wins", []domain.Group{specific, general}, "specific"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := ResolveGateway(testInstance(), testConfiguration(tt.groups...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gw == nil || gw.Name != tt.want {
				t.Fatalf("ResolveGateway() = %v, want %s", gw, tt.want)
			}
		})
	}
}

func TestResolveGateway_EmptyGroupIsWildcard(t *testing.T) {
	cfg := testConfiguration(domain.Group{Name: "all", Gateway: "general"})

	for _, inst := range []domain.Instance{
		testInstance(),
		{ID: "i-classic", ProfileName: "other", Region: "eu-west-1", PrivateAddress: "10.9.9.9"},
	} {
		gw, err := ResolveGateway(inst, cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gw == nil || gw.Name != "general" {
			t.Fatalf("expected wildcard group to match %s, got %v", inst.ID, gw)
		}
	}
}

func TestResolveGateway_FieldMismatch(t *testing.T) {
	tests := []struct {
		name  string
		group domain.Group
	}{
		{"profile", domain.Group{Profile: strPtr("prod")}},
		{"region", domain.Group{Region: strPtr("us-east-1")}},
		{"classic", domain.Group{EC2Classic: boolPtr(true)}},
		{"vpc", domain.Group{VpcID: strPtr("vpc-other")}},
		{"subnet", domain.Group{SubnetID: strPtr("subnet-other")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.group.Name = tt.name
			tt.group.Gateway = "general"
			cfg := testConfiguration(tt.group)
			delete(cfg.Gateways, "testing")

			gw, err := ResolveGateway(testInstance(), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gw != nil {
				t.Fatalf("expected no gateway, got %s", gw.Name)
			}
		})
	}
}

func TestResolveGateway_ClassicGroup(t *testing.T) {
	cfg := testConfiguration(
		domain.Group{Name: "vpc", EC2Classic: boolPtr(false), Gateway: "specific"},
		domain.Group{Name: "classic", EC2Classic: boolPtr(true), Gateway: "general"},
	)
	classic := domain.Instance{ID: "i-1", ProfileName: "testing", Region: "us-east-1", PrivateAddress: "10.0.0.1"}

	gw, err := ResolveGateway(classic, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw == nil || gw.Name != "general" {
		t.Fatalf("expected classic group gateway, got %v", gw)
	}
}

func TestResolveGateway_ProfileFallback(t *testing.T) {
	// No group matches, so the gateway named after the profile is used.
	cfg := testConfiguration(domain.Group{Name: "prod", Profile: strPtr("prod"), Gateway: "general"})
	gw, err := ResolveGateway(testInstance(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw == nil || gw.Name != "testing" {
		t.Fatalf("expected profile gateway, got %v", gw)
	}

	// A matching group takes precedence over the profile gateway.
	cfg = testConfiguration(domain.Group{Name: "any", Gateway: "general"})
	gw, err = ResolveGateway(testInstance(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw == nil || gw.Name != "general" {
		t.Fatalf("expected group gateway, got %v", gw)
	}
}

func TestResolveGateway_NoGateway(t *testing.T) {
	gw, err := ResolveGateway(testInstance(), domain.NewConfiguration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw != nil {
		t.Fatalf("expected nil gateway, got %v", gw)
	}
}

func TestResolveGateway_DanglingReference(t *testing.T) {
	cfg := testConfiguration(domain.Group{Name: "web", Gateway: "missing"})

	_, err := ResolveGateway(testInstance(), cfg)
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Section != "group web" {
		t.Fatalf("unexpected section %q", cfgErr.Section)
	}
}
