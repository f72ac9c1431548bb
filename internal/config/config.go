package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	VerifierLDAP = "ldap"
	VerifierREST = "rest"

	DefaultTokenTTL         = 15 * time.Minute
	DefaultMaxRefreshWindow = 24 * time.Hour
	DefaultVerifierTimeout  = 5 * time.Second
	DefaultIssuer           = "tokenizer"
	minSecretLength         = 32
)

type Config struct {
	Cipher   CipherConfig   `yaml:"cipher"`
	Signing  SigningConfig  `yaml:"signing"`
	Token    TokenConfig    `yaml:"token"`
	Verifier VerifierConfig `yaml:"verifier"`
	Policy   PolicyConfig   `yaml:"policy"`
	Audit    AuditConfig    `yaml:"audit"`
	Admin    AdminConfig    `yaml:"admin"`
}

// CipherConfig holds the key material used to decrypt credential bundles.
// Either Key or Passphrase must be set.
type CipherConfig struct {
	// Key is a base64 encoded 32 byte AES key.
	Key string `yaml:"key"`

	// Passphrase is stretched with PBKDF2 (Salt, Iterations) if Key is empty.
	Passphrase string `yaml:"passphrase"`
	Salt       string `yaml:"salt"`
	Iterations int    `yaml:"iterations"`

	// Separator between username and password in the plaintext. Defaults to ":".
	Separator string `yaml:"separator"`
}

func (c *CipherConfig) Validate() error {
	if c.Key == "" && c.Passphrase == "" {
		return fmt.Errorf("either key or passphrase is required")
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}
	return nil
}

// SigningConfig holds the process-wide token signing secret.
type SigningConfig struct {
	// Secret is the HMAC secret used to sign tokens.
	Secret string `yaml:"secret"`

	// Issuer is written into the "iss" claim.
	Issuer string `yaml:"issuer"`
}

func (c *SigningConfig) Validate() error {
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("secret must be at least %d bytes", minSecretLength)
	}
	return nil
}

type TokenConfig struct {
	// TTL is the validity of access tokens.
	TTL time.Duration `yaml:"ttl"`

	// MaxRefreshWindow caps the refresh window a caller may request. Defaults to DefaultMaxRefreshWindow.
	MaxRefreshWindow time.Duration `yaml:"max_refresh_window"`
}

func (c *TokenConfig) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	if c.MaxRefreshWindow < 0 {
		return fmt.Errorf("max_refresh_window must not be negative")
	}
	return nil
}

// VerifierConfig selects the identity verifier. The type-specific fields are captured in Config
// and decoded by the verifier itself.
type VerifierConfig struct {
	Type    string         `yaml:"type"` // "ldap" or "rest"
	Timeout time.Duration  `yaml:"timeout"`
	Config  map[string]any `yaml:",inline"`
}

func (c *VerifierConfig) Validate() error {
	switch c.Type {
	case VerifierLDAP, VerifierREST:
	case "":
		return fmt.Errorf("type is required (%s or %s)", VerifierLDAP, VerifierREST)
	default:
		return fmt.Errorf("unknown type '%s'", c.Type)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// PolicyConfig holds optional access rules evaluated after a successful identity verification.
type PolicyConfig struct {
	Rules []PolicyRule `yaml:"rules"`
}

type PolicyRule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name"`

	// Consumers restricts the rule to the given consumer ids. Empty means all consumers.
	Consumers []string `yaml:"consumers"`

	// Expr must evaluate to true for the request to be allowed.
	Expr string `yaml:"expr"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
	// Sync fsyncs the file audit log after every entry.
	Sync bool `yaml:"sync"`
}

func (c *AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Type {
	case "memory":
	case "file", "":
		if c.Path == "" {
			return fmt.Errorf("path is required for file audit")
		}
	default:
		return fmt.Errorf("unknown audit type '%s'", c.Type)
	}
	return nil
}

// AdminConfig grants access to the admin routes.
type AdminConfig struct {
	// Subjects are the users whose access tokens may read the audit log. Empty disables the admin routes.
	Subjects []string `yaml:"subjects"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// Parse parses the configuration and fills in defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Token.TTL == 0 {
		c.Token.TTL = DefaultTokenTTL
	}
	if c.Token.MaxRefreshWindow == 0 {
		c.Token.MaxRefreshWindow = DefaultMaxRefreshWindow
	}
	if c.Verifier.Timeout == 0 {
		c.Verifier.Timeout = DefaultVerifierTimeout
	}
	if c.Signing.Issuer == "" {
		c.Signing.Issuer = DefaultIssuer
	}
	// the inline map also captures the known keys
	delete(c.Verifier.Config, "type")
	delete(c.Verifier.Config, "timeout")
}

func (c *Config) Validate() error {
	if err := c.Cipher.Validate(); err != nil {
		return fmt.Errorf("cipher: %w", err)
	}
	if err := c.Signing.Validate(); err != nil {
		return fmt.Errorf("signing: %w", err)
	}
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if err := c.Verifier.Validate(); err != nil {
		return fmt.Errorf("verifier: %w", err)
	}
	seen := make(map[string]struct{})
	for idx, rule := range c.Policy.Rules {
		if rule.Name == "" {
			return fmt.Errorf("policy rule at index %d has empty name", idx)
		}
		if _, exists := seen[rule.Name]; exists {
			return fmt.Errorf("policy rule name '%s' is not unique", rule.Name)
		}
		seen[rule.Name] = struct{}{}
		if rule.Expr == "" {
			return fmt.Errorf("policy rule '%s' missing expr", rule.Name)
		}
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}
