package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/cipher"
	"github.com/darmiel/tokenizer/internal/cliconfig"
	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
	"github.com/darmiel/tokenizer/internal/engine"
	"github.com/darmiel/tokenizer/internal/service"
	"github.com/darmiel/tokenizer/internal/token"
	"github.com/darmiel/tokenizer/internal/verifier"
	"github.com/darmiel/tokenizer/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the Tokenizer server to connect to.
	RemoteAddr string

	// ConfigPath is the service configuration used by serve and the local commands.
	ConfigPath string
}

func NewFactory() *Factory {
	return &Factory{}
}

// GetClient returns an authenticated HTTP client for remote operations.
func (f *Factory) GetClient() (*client.Client, error) {
	server := f.RemoteAddr
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set TOKENIZER_ADDR)")
	}

	var token string
	if cfg, err := cliconfig.Load(); err == nil {
		if cred, err := cfg.GetCredential(server, time.Now()); err == nil { // token prio 1: saved credential
			token = cred.Token
		}
	}

	if envToken := os.Getenv("TOKENIZER_TOKEN"); envToken != "" { // token prio 2: env var
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

// LoadConfig reads the service configuration. Secrets set via env (e.g. TOKENIZER_SIGNING_SECRET)
// take precedence over the file.
func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("config file not specified (use --config)")
	}
	data, err := os.ReadFile(f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	applySecretOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

func applySecretOverrides(cfg *config.Config) {
	if v := viper.GetString(SigningSecretKey); v != "" {
		cfg.Signing.Secret = v
	}
	if v := viper.GetString(CipherKeyKey); v != "" {
		cfg.Cipher.Key = v
	}
	if v := viper.GetString(CipherPassphraseKey); v != "" {
		cfg.Cipher.Passphrase = v
	}
}

// LoadCipher builds only the credential cipher, so encrypting test credentials
// does not require a complete service configuration.
func (f *Factory) LoadCipher() (*cipher.AESCipher, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("config file not specified (use --config)")
	}
	data, err := os.ReadFile(f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	applySecretOverrides(cfg)
	if err := cfg.Cipher.Validate(); err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	return cipher.NewFromConfig(cfg.Cipher)
}

// Components are the building blocks of a TokenWorkflow.
type Components struct {
	cfg      *config.Config
	cipher   *cipher.AESCipher
	verifier core.IdentityVerifier
	policy   *engine.PolicyManager
	issuer   *token.Issuer
	auditor  core.Auditor
}

// Build creates all components from the service configuration.
// The caller is responsible for closing the auditor.
func (f *Factory) Build() (*Components, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	c, err := cipher.NewFromConfig(cfg.Cipher)
	if err != nil {
		return nil, fmt.Errorf("building cipher: %w", err)
	}

	v, err := verifier.New(cfg.Verifier)
	if err != nil {
		return nil, err
	}

	policy, err := engine.NewManager(cfg.Policy.Rules)
	if err != nil {
		return nil, fmt.Errorf("building policy engine: %w", err)
	}

	issuer, err := token.NewFromConfig(cfg.Signing, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("building token issuer: %w", err)
	}

	auditor, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("building auditor: %w", err)
	}

	return &Components{
		cfg:      cfg,
		cipher:   c,
		verifier: v,
		policy:   policy,
		issuer:   issuer,
		auditor:  auditor,
	}, nil
}

func (c *Components) Workflow() *service.TokenWorkflow {
	return service.NewTokenWorkflow(c.cipher, c.verifier, c.issuer,
		service.WithPolicy(c.policy),
		service.WithAuditor(c.auditor),
	)
}
