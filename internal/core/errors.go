package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the boundaries between the workflow stages.
type ErrorKind int

const (
	// KindInternal is an unanticipated failure.
	KindInternal ErrorKind = iota
	// KindInvalidInput means an empty or malformed request field.
	KindInvalidInput
	// KindDecryption means the credential bundle could not be decrypted.
	KindDecryption
	// KindDirectory means the directory service could not be reached or answered garbage.
	KindDirectory
	// KindNetwork means the remote authorization endpoint could not be reached (incl. cancellation).
	KindNetwork
	// KindClaims means required claims are missing or do not match the request.
	KindClaims
	// KindSignature means the token signature did not verify.
	KindSignature
	// KindExpired means the token is past its expiry.
	KindExpired
	// KindMalformed means the token could not be parsed into the expected claims.
	KindMalformed
)

var kindNames = map[ErrorKind]string{
	KindInternal:     "internal",
	KindInvalidInput: "invalid_input",
	KindDecryption:   "decryption",
	KindDirectory:    "directory",
	KindNetwork:      "network",
	KindClaims:       "claims",
	KindSignature:    "signature",
	KindExpired:      "expired",
	KindMalformed:    "malformed",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by the cipher, verifiers and the token issuer.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed, e.g. "cipher.decrypt".
	Op  string
	Err error
}

// E creates a new *Error.
func E(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf creates a new *Error with a formatted message.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Reason returns the message of the innermost error wrapped by the first *Error in err's chain.
// It is used where the message is safe to show to callers (validation reasons).
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
