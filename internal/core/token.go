package core

import "time"

const (
	// AccessTokenType is the "typ" claim value of access tokens.
	AccessTokenType = "access"
	// RefreshTokenType is the "typ" claim value of refresh tokens.
	RefreshTokenType = "refresh"
)

// Claims are the fields embedded in and recovered from a signed token.
type Claims struct {
	// ID is the unique token identifier (jti).
	ID string `json:"id"`

	// Subject is the user the token was issued for.
	Subject string `json:"subject"`

	ConsumerID    string `json:"consumer_id"`
	FunctionalID  string `json:"functional_id"`
	TransactionID string `json:"transaction_id"`

	// Type is either AccessTokenType or RefreshTokenType.
	Type string `json:"type"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// RefreshExpiresAt is only set if a refresh capability was requested.
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}

// Refreshable reports whether the token carries a refresh capability.
func (c Claims) Refreshable() bool {
	return c.RefreshExpiresAt != nil
}

// Token is an issued token: the signed strings plus the claims they carry.
type Token struct {
	// AccessToken is the signed access token.
	AccessToken string `json:"access_token"`

	// RefreshToken is only set if a refresh window was requested.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Fingerprint identifies the access token in audit logs without revealing it.
	Fingerprint string `json:"fingerprint"`

	Claims Claims `json:"claims"`
}
