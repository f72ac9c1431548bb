package engine

import (
	"testing"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

func TestEngine_Allow(t *testing.T) {
	rules := []config.PolicyRule{
		{
			Name:      "payments-admins",
			Consumers: []string{"payments"},
			Expr:      `"admins" in identity.attributes["memberOf"]`,
		},
		{
			Name: "no-long-refresh",
			Expr: `request.refresh_window <= 3600`,
		},
		{
			Name:      "ldap-only-for-hr",
			Consumers: []string{"hr"},
			Expr:      `identity.source == "ldap" && request.functional_id startsWith "HR"`,
		},
	}

	eng, err := New(rules)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	admin := core.Identity{
		Verified:   true,
		Subject:    "alice",
		Source:     "ldap",
		Attributes: map[string][]string{"memberOf": {"users", "admins"}},
	}
	user := core.Identity{
		Verified:   true,
		Subject:    "bob",
		Source:     "ldap",
		Attributes: map[string][]string{"memberOf": {"users"}},
	}
	restUser := core.Identity{Verified: true, Subject: "carol", Source: "rest"}

	tests := []struct {
		name      string
		identity  core.Identity
		req       core.CredentialRequest
		wantAllow bool
		wantRule  string
	}{
		{
			name:      "Admin For Payments",
			identity:  admin,
			req:       core.CredentialRequest{ConsumerID: "payments", FunctionalID: "PAY"},
			wantAllow: true,
		},
		{
			name:     "User For Payments",
			identity: user,
			req:      core.CredentialRequest{ConsumerID: "payments", FunctionalID: "PAY"},
			wantRule: "payments-admins",
		},
		{
			name:      "User For Other Consumer",
			identity:  user,
			req:       core.CredentialRequest{ConsumerID: "billing", FunctionalID: "BIL"},
			wantAllow: true,
		},
		{
			name:     "Refresh Window Too Long",
			identity: user,
			req:      core.CredentialRequest{ConsumerID: "billing", FunctionalID: "BIL", RefreshWindow: 7200},
			wantRule: "no-long-refresh",
		},
		{
			name:      "HR Via LDAP",
			identity:  user,
			req:       core.CredentialRequest{ConsumerID: "hr", FunctionalID: "HR01"},
			wantAllow: true,
		},
		{
			name:     "HR Via REST",
			identity: restUser,
			req:      core.CredentialRequest{ConsumerID: "hr", FunctionalID: "HR01"},
			wantRule: "ldap-only-for-hr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, rule := eng.Allow(tt.identity, tt.req)
			if allowed != tt.wantAllow {
				t.Errorf("Allow() allowed = %v, want %v", allowed, tt.wantAllow)
			}
			if rule != tt.wantRule {
				t.Errorf("Allow() rule = %q, want %q", rule, tt.wantRule)
			}
		})
	}
}

func TestEngine_NoRules(t *testing.T) {
	eng, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if allowed, _ := eng.Allow(core.Identity{Verified: true, Subject: "alice"}, core.CredentialRequest{}); !allowed {
		t.Error("Allow() without rules should allow")
	}
}

func TestNew_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "Syntax Error", expr: `identity.subject ==`},
		{name: "Unknown Field", expr: `identity.unknown == "x"`},
		{name: "Not Boolean", expr: `identity.subject`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New([]config.PolicyRule{{Name: "broken", Expr: tt.expr}}); err == nil {
				t.Errorf("New() expected error for %q", tt.expr)
			}
		})
	}
}

func TestEngine_Evaluate(t *testing.T) {
	eng, err := New([]config.PolicyRule{
		{Name: "scoped", Consumers: []string{"payments"}, Expr: `true`},
		{Name: "subject", Expr: `identity.subject == "alice"`},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	results := eng.Evaluate(core.Identity{Subject: "bob"}, core.CredentialRequest{ConsumerID: "billing"})
	if len(results) != 2 {
		t.Fatalf("Evaluate() returned %d results, want 2", len(results))
	}
	if results[0].Applied {
		t.Error("scoped rule should not apply to billing")
	}
	if !results[1].Applied || results[1].Passed || results[1].Reason == "" {
		t.Errorf("subject rule = %+v, want applied and failed with reason", results[1])
	}
}

func TestPolicyManager_Update(t *testing.T) {
	m, err := NewManager(nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	identity := core.Identity{Verified: true, Subject: "bob"}
	req := core.CredentialRequest{ConsumerID: "C1"}

	if allowed, _ := m.Allow(identity, req); !allowed {
		t.Fatal("Allow() before update should allow")
	}

	if err := m.Update([]config.PolicyRule{{Name: "alice-only", Expr: `identity.subject == "alice"`}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if allowed, rule := m.Allow(identity, req); allowed || rule != "alice-only" {
		t.Errorf("Allow() after update = %v, %q", allowed, rule)
	}

	// a broken update keeps the current rules
	if err := m.Update([]config.PolicyRule{{Name: "broken", Expr: `(`}}); err == nil {
		t.Fatal("Update() expected error")
	}
	if m.GetEngine().Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.GetEngine().Len())
	}
}
