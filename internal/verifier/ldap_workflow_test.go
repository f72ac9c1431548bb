package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/cipher"
	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/internal/service"
	"github.com/darmiel/tokenizer/internal/token"
)

// TestLDAP_CreateTokenWorkflow runs the directory lookup scenarios through the whole workflow:
// decrypt, LDAP bind against the in-memory directory, token issuance.
func TestLDAP_CreateTokenWorkflow(t *testing.T) {
	c, err := cipher.New([]byte("0123456789abcdef0123456789abcdef"), cipher.DefaultSeparator)
	if err != nil {
		t.Fatalf("cipher.New() error = %v", err)
	}
	issuer, err := token.New([]byte("fedcba9876543210fedcba9876543210"), "tokenizer-test", 15*time.Minute)
	if err != nil {
		t.Fatalf("token.New() error = %v", err)
	}

	tests := []struct {
		name        string
		users       func(*fakeDirectory)
		wantStatus  int
		wantMessage string
	}{
		{name: "Alice In Directory", wantStatus: core.StatusOK},
		{
			name:        "Alice Not In Directory",
			users:       func(d *fakeDirectory) { d.users = map[string]fakeUser{} },
			wantStatus:  core.StatusForbidden,
			wantMessage: "identity not found",
		},
	}

	for mode, cfg := range map[string]LDAPConfig{"Search": searchConfig(), "Direct": directConfig()} {
		for _, tt := range tests {
			t.Run(mode+"/"+tt.name, func(t *testing.T) {
				dir := newFakeDirectory()
				if tt.users != nil {
					tt.users(dir)
				}
				auditor := audit.NewInMemoryAuditor(10)
				wf := service.NewTokenWorkflow(c, newTestLDAP(t, cfg, dir), issuer, service.WithAuditor(auditor))

				enc, err := c.Encrypt(core.Credentials{Username: "alice", Password: "secret"})
				if err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}
				res := wf.CreateToken(context.Background(), core.CredentialRequest{
					EncryptedCredentials: enc,
					ConsumerID:           "C1",
					FunctionalID:         "F1",
					TransactionID:        "T1",
				})

				if res.StatusCode != tt.wantStatus {
					t.Fatalf("StatusCode = %d, want %d (%+v)", res.StatusCode, tt.wantStatus, res.Error)
				}
				if tt.wantStatus != core.StatusOK {
					if res.Token != nil || res.Error == nil || res.Error.Message != tt.wantMessage {
						t.Errorf("result = %+v, want error %q without token", res, tt.wantMessage)
					}
					return
				}

				if res.Token == nil || res.Token.RefreshToken != "" {
					t.Fatalf("Token = %+v", res.Token)
				}
				claims, err := issuer.Validate(res.Token.AccessToken)
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if claims.Subject != "alice" || claims.ConsumerID != "C1" || claims.FunctionalID != "F1" || claims.TransactionID != "T1" {
					t.Errorf("claims = %+v", claims)
				}

				entries, _ := auditor.GetRecent(1)
				if len(entries) != 1 || entries[0].Verifier != LDAPType || !entries[0].Granted {
					t.Errorf("audit entries = %+v", entries)
				}
			})
		}
	}
}
