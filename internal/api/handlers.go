package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/api/presenter"
	"github.com/darmiel/tokenizer/internal/buildinfo"
	"github.com/darmiel/tokenizer/internal/core"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.GetBuildInfo()
	info.Verifier = s.workflow.VerifierType()
	presenter.JSON(w, r, info, http.StatusOK)
}

type workflowFunc func(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult

// handleWorkflow reads the credential request from the headers and runs fn with it.
// The response status is the status of the workflow result.
func (s *Server) handleWorkflow(fn workflowFunc, withToken bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.Ctx(ctx)

		req, err := credentialRequestFromHeaders(r.Header, withToken)
		if err != nil {
			logger.Warn().Err(err).Msg("invalid request headers")
			presenter.Result(w, r, core.Failure(core.StatusInternalError, err.Error(), time.Now()))
			return
		}

		presenter.Result(w, r, fn(ctx, req))
	}
}

func credentialRequestFromHeaders(h http.Header, withToken bool) (core.CredentialRequest, error) {
	req := core.CredentialRequest{
		EncryptedCredentials: strings.TrimSpace(h.Get(HeaderCredentials)),
		ConsumerID:           strings.TrimSpace(h.Get(HeaderConsumerID)),
		FunctionalID:         strings.TrimSpace(h.Get(HeaderFunctionalID)),
		TransactionID:        strings.TrimSpace(h.Get(HeaderTransactionID)),
	}
	if withToken {
		req.JWTToken = strings.TrimSpace(strings.TrimPrefix(h.Get(HeaderAuthToken), "Bearer "))
	}
	if raw := strings.TrimSpace(h.Get(HeaderRefreshWindow)); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil {
			return core.CredentialRequest{}, fmt.Errorf("invalid %s header: %q is not an integer", HeaderRefreshWindow, raw)
		}
		req.RefreshWindow = window
	}
	return req, nil
}

// handleAdminAudit returns recent audit entries, optionally filtered.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	reader, ok := s.auditor.(core.AuditReader)
	if !ok {
		presenter.Error(w, r, "the configured auditor cannot be read", http.StatusNotImplemented)
		return
	}

	q := r.URL.Query()
	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	filterCorrelationID := q.Get("correlation_id")
	filterSubject := q.Get("subject")
	filterFingerprint := q.Get("fingerprint")
	filterTransactionID := q.Get("transaction_id")

	var (
		entries []core.AuditEntry
		err     error
	)
	if filterCorrelationID != "" || filterSubject != "" || filterFingerprint != "" || filterTransactionID != "" {
		entries, err = reader.Find(func(entry core.AuditEntry) bool {
			if filterCorrelationID != "" && entry.ID != filterCorrelationID {
				return false
			}
			if filterSubject != "" && entry.Subject != filterSubject {
				return false
			}
			if filterFingerprint != "" && entry.TokenFingerprint != filterFingerprint {
				return false
			}
			if filterTransactionID != "" && entry.TransactionID != filterTransactionID {
				return false
			}
			return true
		}, limit)
	} else {
		entries, err = reader.GetRecent(limit)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
