package core

import "fmt"

// CredentialRequest is the input of every workflow entry point.
// It is built by the transport layer from request headers.
type CredentialRequest struct {
	// EncryptedCredentials is the opaque credential bundle sent by the caller.
	EncryptedCredentials string `json:"credentials"`

	// JWTToken is the token to validate (or the refresh token to exchange).
	// Only used by the validate and refresh flows.
	JWTToken string `json:"auth_token,omitempty"`

	// ConsumerID identifies the interface that will consume the token.
	ConsumerID string `json:"consumer_id"`

	// FunctionalID is the acronym of the functionality the token is requested for.
	FunctionalID string `json:"functional_id"`

	// TransactionID is the caller-generated identifier of the transaction.
	TransactionID string `json:"transaction_id"`

	// RefreshWindow is the lifetime of the refresh capability in seconds.
	// Zero (or a negative value) means no refresh token is issued.
	RefreshWindow int `json:"refresh_window,omitempty"`
}

// Credentials is the decrypted username/password pair.
// It only lives for the duration of a single workflow invocation.
type Credentials struct {
	Username string
	Password string
}

// String redacts the password so credentials never end up in logs by accident.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q, Password: [REDACTED]}", c.Username)
}

// GoString redacts the password for %#v.
func (c Credentials) GoString() string {
	return c.String()
}

// Identity is the result of an identity verification.
type Identity struct {
	// Verified is true if the verifier confirmed the identity.
	// A false value means "not found" and is not an error.
	Verified bool `json:"verified"`

	// Subject is the confirmed user name (or directory DN for LDAP lookups).
	Subject string `json:"subject,omitempty"`

	// Source is the type of the verifier that produced this identity (e.g. "ldap", "rest").
	Source string `json:"source,omitempty"`

	// Attributes are optional attributes returned by the directory.
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// NotFound returns an unverified identity for the given verifier type.
func NotFound(source string) Identity {
	return Identity{Verified: false, Source: source}
}

// Attribute returns the first value of the attribute with the given name, or "".
func (i Identity) Attribute(name string) string {
	if values := i.Attributes[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}
