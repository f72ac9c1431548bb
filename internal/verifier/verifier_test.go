package verifier

import (
	"testing"
	"time"

	"github.com/darmiel/tokenizer/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.VerifierConfig
		wantType string
		wantErr  bool
	}{
		{
			name: "LDAP",
			cfg: config.VerifierConfig{
				Type:    config.VerifierLDAP,
				Timeout: 2 * time.Second,
				Config: map[string]any{
					"url":              "ldaps://ldap.example.org",
					"user_dn_template": "uid=%s,ou=people,dc=example,dc=org",
					"attributes":       []any{"cn", "mail"},
					"start_tls":        "false",
				},
			},
			wantType: LDAPType,
		},
		{
			name: "REST",
			cfg: config.VerifierConfig{
				Type:    config.VerifierREST,
				Timeout: time.Second,
				Config:  map[string]any{"url": "https://authz.example.org/check", "application": "tokenizer"},
			},
			wantType: RESTType,
		},
		{
			name:    "Unknown Type",
			cfg:     config.VerifierConfig{Type: "kerberos"},
			wantErr: true,
		},
		{
			name: "Unknown Key",
			cfg: config.VerifierConfig{
				Type:   config.VerifierREST,
				Config: map[string]any{"url": "https://authz.example.org", "uri": "typo"},
			},
			wantErr: true,
		},
		{
			name: "Invalid LDAP Config",
			cfg: config.VerifierConfig{
				Type:   config.VerifierLDAP,
				Config: map[string]any{"url": "ldap://x"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if v.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", v.Type(), tt.wantType)
			}
		})
	}
}

func TestNew_TimeoutPropagates(t *testing.T) {
	v, err := New(config.VerifierConfig{
		Type:    config.VerifierREST,
		Timeout: 3 * time.Second,
		Config:  map[string]any{"url": "http://localhost:8081/authz"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	rest, ok := v.(*RESTVerifier)
	if !ok {
		t.Fatalf("New() = %T, want *RESTVerifier", v)
	}
	if rest.httpClient.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", rest.httpClient.Timeout)
	}
}
