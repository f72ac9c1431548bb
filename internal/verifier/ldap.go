package verifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/core"
)

const (
	LDAPType          = "ldap"
	DefaultUserFilter = "(uid=%s)"
)

var _ core.IdentityVerifier = (*LDAPVerifier)(nil)

type LDAPConfig struct {
	// URL of the directory, e.g. ldaps://ldap.example.org:636
	URL string `mapstructure:"url"`

	// BaseDN is the search base for users.
	BaseDN string `mapstructure:"base_dn"`

	// BindDN and BindPassword are the service account used to search for the user.
	// If BindDN is empty, UserDNTemplate is used to bind as the user directly.
	BindDN       string `mapstructure:"bind_dn"`
	BindPassword string `mapstructure:"bind_password"`

	// UserFilter is the search filter, "%s" is replaced with the escaped username.
	UserFilter string `mapstructure:"user_filter"`

	// UserDNTemplate is the DN of a user, "%s" is replaced with the escaped username.
	// e.g. "uid=%s,ou=people,dc=example,dc=org"
	UserDNTemplate string `mapstructure:"user_dn_template"`

	// Attributes to return with the identity.
	Attributes []string `mapstructure:"attributes"`

	StartTLS           bool `mapstructure:"start_tls"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`

	Timeout time.Duration `mapstructure:"-"`
}

func (c *LDAPConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.BindDN == "" && c.UserDNTemplate == "" {
		return errors.New("either bind_dn or user_dn_template is required")
	}
	if c.BindDN != "" && c.BaseDN == "" {
		return errors.New("base_dn is required when searching with bind_dn")
	}
	if c.UserFilter != "" && strings.Count(c.UserFilter, "%s") != 1 {
		return errors.New("user_filter must contain exactly one %s")
	}
	if c.UserDNTemplate != "" && strings.Count(c.UserDNTemplate, "%s") != 1 {
		return errors.New("user_dn_template must contain exactly one %s")
	}
	return nil
}

var _ directoryConn = (*ldap.Conn)(nil)

// directoryConn is the subset of *ldap.Conn used by the verifier.
type directoryConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

type dialFunc func(ctx context.Context) (directoryConn, error)

// LDAPVerifier verifies users by binding against an LDAP directory. It never modifies the directory.
type LDAPVerifier struct {
	cfg  LDAPConfig
	dial dialFunc
}

func NewLDAP(cfg LDAPConfig) (*LDAPVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserFilter == "" {
		cfg.UserFilter = DefaultUserFilter
	}
	v := &LDAPVerifier{cfg: cfg}
	v.dial = v.dialDirectory
	return v, nil
}

func (v *LDAPVerifier) Type() string {
	return LDAPType
}

func (v *LDAPVerifier) Verify(ctx context.Context, req core.VerifyRequest) (core.Identity, error) {
	const op = "verifier.ldap"
	logger := log.Ctx(ctx)

	if err := ctx.Err(); err != nil {
		return core.Identity{}, core.E(core.KindDirectory, op, err)
	}
	// an empty password would turn the user bind into an unauthenticated bind, which always succeeds
	if req.Credentials.Username == "" || req.Credentials.Password == "" {
		return core.NotFound(LDAPType), nil
	}

	conn, err := v.dial(ctx)
	if err != nil {
		return core.Identity{}, v.directoryError(ctx, op, "connecting to directory", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	// go-ldap does not take a context, closing the connection aborts pending operations
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	var (
		entry *ldap.Entry
		found bool
	)
	if v.cfg.BindDN != "" {
		entry, found, err = v.searchAndBind(conn, req.Credentials)
	} else {
		entry, found, err = v.bindDirect(conn, req.Credentials)
	}
	if err != nil {
		return core.Identity{}, v.directoryError(ctx, op, "querying directory", err)
	}
	if !found {
		logger.Debug().Str("user", req.Credentials.Username).Msg("user not found in directory")
		return core.NotFound(LDAPType), nil
	}

	attributes := map[string][]string{"dn": {entry.DN}}
	for _, attr := range entry.Attributes {
		attributes[attr.Name] = attr.Values
	}
	return core.Identity{
		Verified:   true,
		Subject:    req.Credentials.Username,
		Source:     LDAPType,
		Attributes: attributes,
	}, nil
}

// searchAndBind looks the user up with the service account and then binds as the user.
func (v *LDAPVerifier) searchAndBind(conn directoryConn, creds core.Credentials) (*ldap.Entry, bool, error) {
	if err := conn.Bind(v.cfg.BindDN, v.cfg.BindPassword); err != nil {
		return nil, false, fmt.Errorf("service account bind: %w", err)
	}

	filter := fmt.Sprintf(v.cfg.UserFilter, ldap.EscapeFilter(creds.Username))
	result, err := conn.Search(ldap.NewSearchRequest(
		v.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // we only care whether there is exactly one
		v.timeLimit(),
		false,
		filter,
		v.cfg.Attributes,
		nil,
	))
	if err != nil {
		if isNotFound(err) || ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("searching user: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, false, nil
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, creds.Password); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("user bind: %w", err)
	}
	return entry, true, nil
}

// bindDirect binds with the templated user DN and reads the entry afterward.
func (v *LDAPVerifier) bindDirect(conn directoryConn, creds core.Credentials) (*ldap.Entry, bool, error) {
	userDN := fmt.Sprintf(v.cfg.UserDNTemplate, ldap.EscapeDN(creds.Username))
	if err := conn.Bind(userDN, creds.Password); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("user bind: %w", err)
	}

	result, err := conn.Search(ldap.NewSearchRequest(
		userDN,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1,
		v.timeLimit(),
		false,
		"(objectClass=*)",
		v.cfg.Attributes,
		nil,
	))
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading user entry: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, false, nil
	}
	return result.Entries[0], true, nil
}

func (v *LDAPVerifier) timeLimit() int {
	return int(v.cfg.Timeout.Seconds())
}

func (v *LDAPVerifier) directoryError(ctx context.Context, op, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return core.E(core.KindDirectory, op, fmt.Errorf("%s: %w (%w)", msg, ctxErr, err))
	}
	return core.E(core.KindDirectory, op, fmt.Errorf("%s: %w", msg, err))
}

// isNotFound reports whether the directory rejected the user, as opposed to failing.
func isNotFound(err error) bool {
	return ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidDNSyntax)
}

// dialDirectory connects with ctx, so a cancelled request also aborts the TCP and TLS handshake.
func (v *LDAPVerifier) dialDirectory(ctx context.Context) (directoryConn, error) {
	u, err := url.Parse(v.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	var isTLS bool
	port := u.Port()
	switch u.Scheme {
	case "ldap":
		if port == "" {
			port = ldap.DefaultLdapPort
		}
	case "ldaps":
		isTLS = true
		if port == "" {
			port = ldap.DefaultLdapsPort
		}
	default:
		return nil, fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}

	tlsConfig := &tls.Config{
		ServerName:         u.Hostname(),
		InsecureSkipVerify: v.cfg.InsecureSkipVerify, //nolint:gosec // opt-in for test environments
		MinVersion:         tls.VersionTLS12,
	}

	dialer := &net.Dialer{Timeout: v.cfg.Timeout}
	raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return nil, err
	}
	if isTLS {
		tlsConn := tls.Client(raw, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		raw = tlsConn
	}

	conn := ldap.NewConn(raw, isTLS)
	conn.Start()
	if v.cfg.Timeout > 0 {
		conn.SetTimeout(v.cfg.Timeout)
	}
	if v.cfg.StartTLS && !isTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("starting tls: %w", err)
		}
	}
	return conn, nil
}
