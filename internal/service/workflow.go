package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/core"
)

// Audit actions, one per entry point.
const (
	ActionCreate         = "token.create"
	ActionValidate       = "token.validate"
	ActionCreatePublic   = "token.create.public"
	ActionValidatePublic = "token.validate.public"
	ActionRefresh        = "token.refresh"
)

// TokenWorkflow sequences decryption, identity verification, policy evaluation and token issuance.
// It holds no mutable state and is safe for concurrent use.
type TokenWorkflow struct {
	cipher   core.CredentialCipher
	verifier core.IdentityVerifier
	policy   core.AccessPolicy
	issuer   core.TokenIssuer
	auditor  core.Auditor
	now      core.Clock
}

type Option func(*TokenWorkflow)

// WithPolicy enables access rules for the authenticated entry points.
func WithPolicy(policy core.AccessPolicy) Option {
	return func(w *TokenWorkflow) {
		w.policy = policy
	}
}

func WithAuditor(auditor core.Auditor) Option {
	return func(w *TokenWorkflow) {
		w.auditor = auditor
	}
}

func WithClock(now core.Clock) Option {
	return func(w *TokenWorkflow) {
		w.now = now
	}
}

func NewTokenWorkflow(
	cipher core.CredentialCipher,
	verifier core.IdentityVerifier,
	issuer core.TokenIssuer,
	opts ...Option,
) *TokenWorkflow {
	w := &TokenWorkflow{
		cipher:   cipher,
		verifier: verifier,
		issuer:   issuer,
		auditor:  audit.NewNoopAuditor(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// VerifierType returns the type of the configured identity verifier.
func (w *TokenWorkflow) VerifierType() string {
	return w.verifier.Type()
}

// CreateToken verifies the identity behind the credentials and issues a token for it.
func (w *TokenWorkflow) CreateToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult {
	return w.execute(ctx, ActionCreate, req, func(ctx context.Context, ex *execution) (*core.WorkflowResult, error) {
		creds, err := w.decrypt(ctx, ex, req)
		if err != nil {
			return nil, err
		}
		if err := w.verifyIdentity(ctx, ex, creds, req); err != nil {
			return nil, err
		}
		return w.create(ex, creds, req)
	})
}

// ValidateToken verifies the identity behind the credentials and validates the token presented with them.
func (w *TokenWorkflow) ValidateToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult {
	return w.execute(ctx, ActionValidate, req, func(ctx context.Context, ex *execution) (*core.WorkflowResult, error) {
		if err := requireToken(ActionValidate, req); err != nil {
			return nil, err
		}
		creds, err := w.decrypt(ctx, ex, req)
		if err != nil {
			return nil, err
		}
		if err := w.verifyIdentity(ctx, ex, creds, req); err != nil {
			return nil, err
		}
		return w.validate(ex, creds, req)
	})
}

// CreateTokenPublic issues a token for the user in the credentials without asking the identity verifier.
func (w *TokenWorkflow) CreateTokenPublic(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult {
	return w.execute(ctx, ActionCreatePublic, req, func(ctx context.Context, ex *execution) (*core.WorkflowResult, error) {
		creds, err := w.decrypt(ctx, ex, req)
		if err != nil {
			return nil, err
		}
		return w.create(ex, creds, req)
	})
}

// ValidateTokenPublic validates the token without asking the identity verifier.
func (w *TokenWorkflow) ValidateTokenPublic(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult {
	return w.execute(ctx, ActionValidatePublic, req, func(ctx context.Context, ex *execution) (*core.WorkflowResult, error) {
		if err := requireToken(ActionValidatePublic, req); err != nil {
			return nil, err
		}
		creds, err := w.decrypt(ctx, ex, req)
		if err != nil {
			return nil, err
		}
		return w.validate(ex, creds, req)
	})
}

// RefreshToken exchanges the refresh token in req.JWTToken for a new access token.
// The identity was verified when the refresh token was issued, so the verifier is not asked again.
func (w *TokenWorkflow) RefreshToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult {
	return w.execute(ctx, ActionRefresh, req, func(ctx context.Context, ex *execution) (*core.WorkflowResult, error) {
		if err := requireToken(ActionRefresh, req); err != nil {
			return nil, err
		}
		creds, err := w.decrypt(ctx, ex, req)
		if err != nil {
			return nil, err
		}
		tok, err := w.issuer.Refresh(req.JWTToken, req)
		if err != nil {
			return nil, fmt.Errorf("refreshing token: %w", err)
		}
		if tok.Claims.Subject != creds.Username {
			return nil, core.Errorf(core.KindClaims, ActionRefresh, "token subject does not match the credentials")
		}
		ex.entry.TokenFingerprint = tok.Fingerprint
		return &core.WorkflowResult{StatusCode: core.StatusOK, Token: tok}, nil
	})
}

// execution is the state of a single workflow invocation.
type execution struct {
	entry  *core.AuditEntry
	logger *zerolog.Logger
}

type step func(ctx context.Context, ex *execution) (*core.WorkflowResult, error)

// execute runs fn, turns its error into a result and writes the audit entry.
// Panics are recovered and reported as a failed operation.
func (w *TokenWorkflow) execute(
	ctx context.Context,
	action string,
	req core.CredentialRequest,
	fn step,
) (result *core.WorkflowResult) {
	logger := log.Ctx(ctx)

	entry := core.AuditEntry{
		ID:            core.CorrelationID(ctx),
		Time:          w.now(),
		Action:        action,
		ConsumerID:    req.ConsumerID,
		FunctionalID:  req.FunctionalID,
		TransactionID: req.TransactionID,
		ClientIP:      core.ClientIP(ctx),
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("action", action).
				Msg("recovered from panic in token workflow")
			result = w.failure(ctx, &entry, core.Errorf(core.KindInternal, action, "panic: %v", r))
		}

		entry.StatusCode = result.StatusCode
		entry.Granted = result.OK()
		if err := w.auditor.Log(entry); err != nil {
			logger.Error().Err(err).Str("action", action).Msg("failed to write audit log entry")
		}
	}()

	res, err := fn(ctx, &execution{entry: &entry, logger: logger})
	if err != nil {
		return w.failure(ctx, &entry, err)
	}

	logger.Info().
		Str("action", action).
		Str("token_fingerprint", entry.TokenFingerprint).
		Msg("token workflow succeeded")
	return res
}

func (w *TokenWorkflow) failure(ctx context.Context, entry *core.AuditEntry, err error) *core.WorkflowResult {
	logger := log.Ctx(ctx)
	serr := classify(err)

	entry.ErrorKind = core.KindOf(err).String()
	entry.Error = serr.Message

	// the cause is only logged, callers get the classified message
	ev := logger.Warn()
	if serr.StatusCode >= core.StatusInternalError {
		ev = logger.Error()
	}
	ev.Err(err).
		Str("action", entry.Action).
		Str("error_kind", entry.ErrorKind).
		Int("status", serr.StatusCode).
		Msg("token workflow failed")

	return core.Failure(serr.StatusCode, serr.Message, w.now())
}

func (w *TokenWorkflow) decrypt(_ context.Context, ex *execution, req core.CredentialRequest) (core.Credentials, error) {
	creds, err := w.cipher.Decrypt(req.EncryptedCredentials)
	if err != nil {
		return core.Credentials{}, fmt.Errorf("decrypting credentials: %w", err)
	}
	ex.entry.Subject = creds.Username
	ex.logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sub", creds.Username)
	})
	return creds, nil
}

func (w *TokenWorkflow) verifyIdentity(
	ctx context.Context,
	ex *execution,
	creds core.Credentials,
	req core.CredentialRequest,
) error {
	ex.entry.Verifier = w.verifier.Type()

	identity, err := w.verifier.Verify(ctx, core.VerifyRequest{
		Credentials:          creds,
		EncryptedCredentials: req.EncryptedCredentials,
		ConsumerID:           req.ConsumerID,
		FunctionalID:         req.FunctionalID,
		TransactionID:        req.TransactionID,
	})
	if err != nil {
		return fmt.Errorf("verifying identity: %w", err)
	}
	if !identity.Verified {
		return ErrIdentityNotFound
	}
	ex.logger.Debug().Str("verifier", identity.Source).Msg("identity verified")

	if w.policy != nil {
		if allowed, rule := w.policy.Allow(identity, req); !allowed {
			ex.entry.PolicyRule = rule
			return fmt.Errorf("rule '%s': %w", rule, ErrPolicyDenied)
		}
	}
	return nil
}

func (w *TokenWorkflow) create(ex *execution, creds core.Credentials, req core.CredentialRequest) (*core.WorkflowResult, error) {
	tok, err := w.issuer.Create(creds.Username, req)
	if err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}
	ex.entry.TokenFingerprint = tok.Fingerprint
	return &core.WorkflowResult{StatusCode: core.StatusOK, Token: tok}, nil
}

func (w *TokenWorkflow) validate(ex *execution, creds core.Credentials, req core.CredentialRequest) (*core.WorkflowResult, error) {
	ex.entry.TokenFingerprint = audit.CalculateFingerprint(audit.TokenizerFingerprintType, req.JWTToken)

	claims, err := w.issuer.Validate(req.JWTToken)
	if err != nil {
		return nil, fmt.Errorf("validating token: %w", err)
	}
	if claims.Subject != creds.Username {
		return nil, core.Errorf(core.KindClaims, ex.entry.Action, "token subject does not match the credentials")
	}
	return &core.WorkflowResult{StatusCode: core.StatusOK, Claims: claims}, nil
}

func requireToken(op string, req core.CredentialRequest) error {
	if req.JWTToken == "" {
		return core.Errorf(core.KindInvalidInput, op, "token must not be empty")
	}
	return nil
}
