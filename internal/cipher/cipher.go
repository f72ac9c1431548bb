package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

const (
	KeySize           = 32
	DefaultIterations = 65536
	DefaultSeparator  = ":"
)

var _ core.CredentialCipher = (*AESCipher)(nil)

// AESCipher encrypts credential bundles with AES-256-GCM.
// Wire format: base64(nonce || ciphertext || tag), plaintext "username<sep>password".
type AESCipher struct {
	aead      stdcipher.AEAD
	separator string
}

// New creates a cipher from a raw 32 byte key.
func New(key []byte, separator string) (*AESCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating aes block: %w", err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return &AESCipher{aead: aead, separator: separator}, nil
}

// DeriveKey stretches a passphrase into a 32 byte key with PBKDF2-SHA256.
func DeriveKey(passphrase, salt string, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, KeySize, sha256.New)
}

// NewFromConfig builds the cipher from either the raw key or the passphrase in cfg.
func NewFromConfig(cfg config.CipherConfig) (*AESCipher, error) {
	if cfg.Key != "" {
		key, err := decodeBase64(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("decoding cipher key: %w", err)
		}
		return New(key, cfg.Separator)
	}
	if cfg.Passphrase == "" {
		return nil, errors.New("either cipher key or passphrase is required")
	}
	return New(DeriveKey(cfg.Passphrase, cfg.Salt, cfg.Iterations), cfg.Separator)
}

// Decrypt implements core.CredentialCipher.
func (c *AESCipher) Decrypt(encrypted string) (core.Credentials, error) {
	const op = "cipher.decrypt"

	encrypted = strings.TrimSpace(encrypted)
	if encrypted == "" {
		return core.Credentials{}, core.Errorf(core.KindInvalidInput, op, "credentials must not be empty")
	}

	raw, err := decodeBase64(encrypted)
	if err != nil {
		return core.Credentials{}, core.E(core.KindDecryption, op, fmt.Errorf("decoding ciphertext: %w", err))
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return core.Credentials{}, core.Errorf(core.KindDecryption, op, "ciphertext too short")
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		// do not wrap: the gcm error is just "message authentication failed"
		return core.Credentials{}, core.Errorf(core.KindDecryption, op, "ciphertext authentication failed")
	}

	username, password, ok := strings.Cut(string(plain), c.separator)
	if !ok || username == "" {
		return core.Credentials{}, core.Errorf(core.KindDecryption, op, "malformed credential payload")
	}

	return core.Credentials{Username: username, Password: password}, nil
}

// Encrypt is the inverse of Decrypt.
func (c *AESCipher) Encrypt(creds core.Credentials) (string, error) {
	const op = "cipher.encrypt"

	if creds.Username == "" {
		return "", core.Errorf(core.KindInvalidInput, op, "username must not be empty")
	}
	if strings.Contains(creds.Username, c.separator) {
		return "", core.Errorf(core.KindInvalidInput, op, "username must not contain %q", c.separator)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", core.E(core.KindInternal, op, fmt.Errorf("generating nonce: %w", err))
	}

	plain := []byte(creds.Username + c.separator + creds.Password)
	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decodeBase64 accepts standard and url-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("invalid base64")
}
