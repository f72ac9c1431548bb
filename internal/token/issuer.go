package token

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

var _ core.TokenIssuer = (*Issuer)(nil)

// maxRefreshSeconds is the largest refresh window that still fits into a time.Duration.
const maxRefreshSeconds = math.MaxInt64 / int64(time.Second)

// tokenClaims is the JWT representation of core.Claims.
type tokenClaims struct {
	ConsumerID    string           `json:"cid"`
	FunctionalID  string           `json:"fid"`
	TransactionID string           `json:"tid,omitempty"`
	Type          string           `json:"typ"`
	RefreshExp    *jwt.NumericDate `json:"rexp,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens with a single process-wide secret.
type Issuer struct {
	secret           []byte
	issuer           string
	ttl              time.Duration
	maxRefreshWindow time.Duration
	now              core.Clock
}

type Option func(*Issuer)

// WithClock replaces time.Now, used by tests.
func WithClock(now core.Clock) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func New(secret []byte, issuer string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	i := &Issuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func NewFromConfig(signing config.SigningConfig, tok config.TokenConfig, opts ...Option) (*Issuer, error) {
	i, err := New([]byte(signing.Secret), signing.Issuer, tok.TTL, opts...)
	if err != nil {
		return nil, err
	}
	i.maxRefreshWindow = tok.MaxRefreshWindow
	return i, nil
}

// Create issues an access token for subject, and a refresh token if req.RefreshWindow is positive.
func (i *Issuer) Create(subject string, req core.CredentialRequest) (*core.Token, error) {
	const op = "token.create"

	switch {
	case subject == "":
		return nil, core.Errorf(core.KindClaims, op, "subject is required")
	case req.ConsumerID == "":
		return nil, core.Errorf(core.KindClaims, op, "consumer id is required")
	case req.FunctionalID == "":
		return nil, core.Errorf(core.KindClaims, op, "functional id is required")
	}

	now := i.now().Truncate(time.Second) // NumericDate has second precision
	claims := core.Claims{
		ID:            uuid.NewString(),
		Subject:       subject,
		ConsumerID:    req.ConsumerID,
		FunctionalID:  req.FunctionalID,
		TransactionID: req.TransactionID,
		Type:          core.AccessTokenType,
		IssuedAt:      now,
		ExpiresAt:     now.Add(i.ttl),
	}

	var refreshToken string
	if req.RefreshWindow > 0 {
		// compare in seconds, the conversion to a Duration overflows for huge windows
		if int64(req.RefreshWindow) > maxRefreshSeconds {
			return nil, core.Errorf(core.KindInvalidInput, op, "refresh window of %ds is out of range", req.RefreshWindow)
		}
		if i.maxRefreshWindow > 0 && int64(req.RefreshWindow) > int64(i.maxRefreshWindow/time.Second) {
			return nil, core.Errorf(core.KindInvalidInput, op,
				"refresh window of %ds exceeds the maximum of %ds", req.RefreshWindow, int64(i.maxRefreshWindow/time.Second))
		}
		window := time.Duration(req.RefreshWindow) * time.Second
		refreshExp := now.Add(window)
		claims.RefreshExpiresAt = &refreshExp

		refreshClaims := claims
		refreshClaims.ID = uuid.NewString()
		refreshClaims.Type = core.RefreshTokenType
		refreshClaims.ExpiresAt = refreshExp

		signed, err := i.sign(refreshClaims)
		if err != nil {
			return nil, core.E(core.KindInternal, op, err)
		}
		refreshToken = signed
	}

	accessToken, err := i.sign(claims)
	if err != nil {
		return nil, core.E(core.KindInternal, op, err)
	}

	return &core.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Fingerprint:  audit.CalculateFingerprint(audit.TokenizerFingerprintType, accessToken),
		Claims:       claims,
	}, nil
}

// Validate verifies the signature and expiry of an access token and returns its claims.
func (i *Issuer) Validate(tokenString string) (*core.Claims, error) {
	const op = "token.validate"

	claims, err := i.parse(op, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != core.AccessTokenType {
		return nil, core.Errorf(core.KindMalformed, op, "expected access token, got '%s'", claims.Type)
	}
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token with the same subject and routing claims.
// The new token has no refresh capability of its own.
func (i *Issuer) Refresh(refreshToken string, req core.CredentialRequest) (*core.Token, error) {
	const op = "token.refresh"

	claims, err := i.parse(op, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != core.RefreshTokenType {
		return nil, core.Errorf(core.KindMalformed, op, "expected refresh token, got '%s'", claims.Type)
	}
	if req.ConsumerID != "" && req.ConsumerID != claims.ConsumerID {
		return nil, core.Errorf(core.KindClaims, op, "consumer id does not match the refresh token")
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = claims.TransactionID
	}
	return i.Create(claims.Subject, core.CredentialRequest{
		ConsumerID:    claims.ConsumerID,
		FunctionalID:  claims.FunctionalID,
		TransactionID: transactionID,
	})
}

func (i *Issuer) sign(c core.Claims) (string, error) {
	tc := tokenClaims{
		ConsumerID:    c.ConsumerID,
		FunctionalID:  c.FunctionalID,
		TransactionID: c.TransactionID,
		Type:          c.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.ID,
			Issuer:    i.issuer,
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
	}
	if c.RefreshExpiresAt != nil {
		tc.RefreshExp = jwt.NewNumericDate(*c.RefreshExpiresAt)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// parse checks the signature first and the expiry second, so a forged token is always reported
// as a signature error even if it is also expired.
// A token is valid up to and including its expiry second; jwt/v5 would reject it at exp itself,
// so the time based claims are checked here instead of by the parser.
func (i *Issuer) parse(op, tokenString string) (*core.Claims, error) {
	if tokenString == "" {
		return nil, core.Errorf(core.KindInvalidInput, op, "token must not be empty")
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &tc, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, classify(op, err)
	}

	if tc.Subject == "" || tc.ConsumerID == "" || tc.FunctionalID == "" || tc.IssuedAt == nil || tc.ExpiresAt == nil {
		return nil, core.Errorf(core.KindMalformed, op, "token is missing required claims")
	}

	now := i.now()
	if tc.IssuedAt.After(now) {
		return nil, core.Errorf(core.KindMalformed, op, "token used before issued")
	}
	if now.After(tc.ExpiresAt.Time) {
		return nil, core.Errorf(core.KindExpired, op, "token expired at %s", tc.ExpiresAt.UTC().Format(time.RFC3339))
	}

	claims := &core.Claims{
		ID:            tc.ID,
		Subject:       tc.Subject,
		ConsumerID:    tc.ConsumerID,
		FunctionalID:  tc.FunctionalID,
		TransactionID: tc.TransactionID,
		Type:          tc.Type,
		IssuedAt:      tc.IssuedAt.Time,
		ExpiresAt:     tc.ExpiresAt.Time,
	}
	if tc.RefreshExp != nil {
		t := tc.RefreshExp.Time
		claims.RefreshExpiresAt = &t
	}
	return claims, nil
}

// classify maps jwt parser errors to error kinds.
// jwt/v5 verifies the signature before it validates the time based claims.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return core.E(core.KindSignature, op, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.E(core.KindExpired, op, err)
	default:
		// malformed, missing claims, used before issued, ...
		return core.E(core.KindMalformed, op, err)
	}
}
