package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "token.create", "token.validate.public")
	Action string `json:"action"`

	// Subject is the user name taken from the decrypted credentials, if decryption succeeded.
	Subject string `json:"subject,omitempty"`

	// Routing metadata of the request
	ConsumerID    string `json:"consumer_id,omitempty"`
	FunctionalID  string `json:"functional_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`

	// ClientIP is the address the request came from (first X-Forwarded-For hop).
	ClientIP string `json:"client_ip,omitempty"`

	// Verifier is the type of the identity verifier used, empty for public flows.
	Verifier string `json:"verifier,omitempty"`
	// PolicyRule is the rule that denied the request, if any.
	PolicyRule string `json:"policy_rule,omitempty"`

	// Decision details
	StatusCode int    `json:"status_code"`
	Granted    bool   `json:"granted"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`

	// TokenFingerprint identifies the issued or validated token.
	TokenFingerprint string `json:"token_fingerprint,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors that can return recent entries.
type AuditReader interface {
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
}
