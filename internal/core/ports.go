package core

import (
	"context"
	"time"
)

// CredentialCipher turns the opaque credential bundle into a username/password pair.
type CredentialCipher interface {
	Decrypt(encrypted string) (Credentials, error)
}

// VerifyRequest is the input of an identity verification.
type VerifyRequest struct {
	Credentials Credentials

	// EncryptedCredentials is forwarded as-is to delegated verifiers,
	// so the plain password never leaves the process.
	EncryptedCredentials string

	ConsumerID    string
	FunctionalID  string
	TransactionID string
}

// IdentityVerifier checks a user against the directory.
// Implementations: LDAP directory lookup, delegated REST authorization.
type IdentityVerifier interface {
	// Type returns the verifier type as used in config (e.g. "ldap").
	Type() string

	// Verify returns a verified identity, an unverified identity (not found),
	// or an error if the backing service could not be asked.
	Verify(ctx context.Context, req VerifyRequest) (Identity, error)
}

// TokenIssuer creates and validates signed tokens.
type TokenIssuer interface {
	Create(subject string, req CredentialRequest) (*Token, error)
	Validate(token string) (*Claims, error)
	Refresh(refreshToken string, req CredentialRequest) (*Token, error)
}

// AccessPolicy decides whether a verified identity may obtain a token for the request.
type AccessPolicy interface {
	Allow(identity Identity, req CredentialRequest) (allowed bool, rule string)
}

// Clock returns the current time; replaced in tests.
type Clock func() time.Time
