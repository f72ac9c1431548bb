package cliconfig

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() missing file error = %v", err)
	}
	if err := cfg.SetCredential("https://tokenizer.example.org:8443", &Credential{
		Token:     "jwt",
		Subject:   "alice",
		ExpiresAt: now.Add(15 * time.Minute),
	}); err != nil {
		t.Fatalf("SetCredential() error = %v", err)
	}
	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	cred, err := loaded.GetCredential("https://tokenizer.example.org:8443/ignored/path", now)
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if cred.Token != "jwt" || cred.Subject != "alice" {
		t.Errorf("GetCredential() = %+v", cred)
	}

	if _, err := loaded.GetCredential("https://tokenizer.example.org:8443", now.Add(time.Hour)); !errors.Is(err, ErrCredentialExpired) {
		t.Errorf("GetCredential() after expiry error = %v, want ErrCredentialExpired", err)
	}
	if _, err := loaded.GetCredential("https://other.example.org", now); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("GetCredential() unknown host error = %v, want ErrCredentialNotFound", err)
	}
	if err := loaded.SetCredential("no-scheme", &Credential{}); err == nil {
		t.Error("SetCredential() without host expected error")
	}
}
