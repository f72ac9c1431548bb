package service

import (
	"errors"

	"github.com/darmiel/tokenizer/internal/core"
)

var (
	// ErrIdentityNotFound is returned if the verifier did not confirm the identity.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrPolicyDenied is returned if a policy rule denied the request.
	ErrPolicyDenied = errors.New("access denied by policy")
)

// Messages shown to callers for errors whose cause must stay internal.
const (
	msgDecryption  = "invalid credentials format"
	msgUnavailable = "communication failure with the identity service"
	msgSignature   = "invalid token signature"
	msgExpired     = "token expired"
	msgMalformed   = "malformed token"
	msgFailed      = "token operation failed"
)

// StatusError is an error with the status code and message it is reported with.
type StatusError struct {
	StatusCode int
	Message    string
	Wrapped    error
}

func (e *StatusError) Error() string {
	return e.Wrapped.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Wrapped
}

// classify maps an error from any workflow stage to the status and message reported to the caller.
func classify(err error) *StatusError {
	status, message := core.StatusForbidden, msgFailed

	switch {
	case errors.Is(err, ErrIdentityNotFound):
		message = ErrIdentityNotFound.Error()
	case errors.Is(err, ErrPolicyDenied):
		message = ErrPolicyDenied.Error()
	default:
		switch core.KindOf(err) {
		case core.KindInvalidInput:
			status, message = core.StatusInternalError, core.Reason(err)
		case core.KindDecryption:
			status, message = core.StatusInternalError, msgDecryption
		case core.KindDirectory, core.KindNetwork:
			status, message = core.StatusServiceUnavailable, msgUnavailable
		case core.KindClaims:
			message = core.Reason(err)
		case core.KindSignature:
			message = msgSignature
		case core.KindExpired:
			message = msgExpired
		case core.KindMalformed:
			message = msgMalformed
		}
	}

	return &StatusError{
		StatusCode: status,
		Message:    message,
		Wrapped:    err,
	}
}
