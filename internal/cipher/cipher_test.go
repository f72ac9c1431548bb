package cipher

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

func testCipher(t *testing.T) *AESCipher {
	t.Helper()
	c, err := New(bytes.Repeat([]byte{0x42}, KeySize), "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := testCipher(t)

	tests := []struct {
		name  string
		creds core.Credentials
	}{
		{name: "Simple", creds: core.Credentials{Username: "alice", Password: "secret"}},
		{name: "Separator In Password", creds: core.Credentials{Username: "bob", Password: "pa:ss:word"}},
		{name: "Empty Password", creds: core.Credentials{Username: "carol", Password: ""}},
		{name: "Unicode", creds: core.Credentials{Username: "dörte", Password: "pässwört"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := c.Encrypt(tt.creds)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			got, err := c.Decrypt(enc)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got != tt.creds {
				t.Errorf("Decrypt() = %v, want %v", got, tt.creds)
			}
		})
	}
}

func TestDecrypt_Errors(t *testing.T) {
	c := testCipher(t)

	valid, err := c.Encrypt(core.Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(valid)

	flipped := append([]byte(nil), raw...)
	flipped[len(flipped)-1] ^= 0x01

	otherKey, _ := New(bytes.Repeat([]byte{0x01}, KeySize), "")
	foreign, _ := otherKey.Encrypt(core.Credentials{Username: "alice", Password: "secret"})

	// valid ciphertext of a payload without a separator
	nonce := make([]byte, c.aead.NonceSize())
	noSep := base64.StdEncoding.EncodeToString(c.aead.Seal(nonce, nonce, []byte("alice"), nil))

	tests := []struct {
		name     string
		input    string
		wantKind core.ErrorKind
	}{
		{name: "Empty", input: "", wantKind: core.KindInvalidInput},
		{name: "Whitespace", input: "   ", wantKind: core.KindInvalidInput},
		{name: "Not Base64", input: "%%%not-base64%%%", wantKind: core.KindDecryption},
		{name: "Too Short", input: base64.StdEncoding.EncodeToString([]byte("short")), wantKind: core.KindDecryption},
		{name: "Tampered", input: base64.StdEncoding.EncodeToString(flipped), wantKind: core.KindDecryption},
		{name: "Wrong Key", input: foreign, wantKind: core.KindDecryption},
		{name: "Missing Separator", input: noSep, wantKind: core.KindDecryption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.input)
			if err == nil {
				t.Fatalf("Decrypt() = %v, want error", got)
			}
			if kind := core.KindOf(err); kind != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v (err: %v)", kind, tt.wantKind, err)
			}
			if got != (core.Credentials{}) {
				t.Errorf("Decrypt() returned credentials on error: %v", got)
			}
		})
	}
}

func TestDecrypt_URLSafeEncoding(t *testing.T) {
	c := testCipher(t)
	enc, err := c.Encrypt(core.Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(enc)

	got, err := c.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got.Username != "alice" || got.Password != "secret" {
		t.Errorf("Decrypt() = %v", got)
	}
}

func TestEncrypt_RejectsSeparatorInUsername(t *testing.T) {
	c := testCipher(t)
	if _, err := c.Encrypt(core.Credentials{Username: "a:b", Password: "x"}); core.KindOf(err) != core.KindInvalidInput {
		t.Errorf("Encrypt() error = %v, want invalid input", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, KeySize))

	tests := []struct {
		name    string
		cfg     config.CipherConfig
		wantErr bool
	}{
		{name: "Raw Key", cfg: config.CipherConfig{Key: key}},
		{name: "Passphrase", cfg: config.CipherConfig{Passphrase: "correct horse", Salt: "tokenizer", Iterations: 1000}},
		{name: "Short Key", cfg: config.CipherConfig{Key: base64.StdEncoding.EncodeToString([]byte("short"))}, wantErr: true},
		{name: "Nothing", cfg: config.CipherConfig{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey("pass", "salt", 1000)
	b := DeriveKey("pass", "salt", 1000)
	if !bytes.Equal(a, b) {
		t.Error("DeriveKey() is not deterministic")
	}
	if bytes.Equal(a, DeriveKey("pass", "other", 1000)) {
		t.Error("DeriveKey() ignores the salt")
	}
	if len(a) != KeySize {
		t.Errorf("len(DeriveKey()) = %d, want %d", len(a), KeySize)
	}
}
