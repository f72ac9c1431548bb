package api

import (
	"context"
	"net/http"

	"github.com/darmiel/tokenizer/internal/api/middleware"
	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/core"
)

// Workflow is the token workflow served by the API.
type Workflow interface {
	CreateToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult
	ValidateToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult
	CreateTokenPublic(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult
	ValidateTokenPublic(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult
	RefreshToken(ctx context.Context, req core.CredentialRequest) *core.WorkflowResult
	VerifierType() string
}

type Server struct {
	workflow Workflow
	auditor  core.Auditor

	// admin routes are only served if both are set
	tokenValidator middleware.TokenValidator
	adminSubjects  []string
}

type Option func(*Server)

// WithAdmin enables the admin routes for access tokens of the given subjects.
func WithAdmin(validator middleware.TokenValidator, subjects []string) Option {
	return func(s *Server) {
		s.tokenValidator = validator
		s.adminSubjects = subjects
	}
}

func NewServer(workflow Workflow, auditor core.Auditor, opts ...Option) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	s := &Server{
		workflow: workflow,
		auditor:  auditor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// token routes
	mux.HandleFunc("POST "+CreateTokenRoute, s.handleWorkflow(s.workflow.CreateToken, false))
	mux.HandleFunc("POST "+ValidateTokenRoute, s.handleWorkflow(s.workflow.ValidateToken, true))
	mux.HandleFunc("POST "+CreateTokenPublicRoute, s.handleWorkflow(s.workflow.CreateTokenPublic, false))
	mux.HandleFunc("POST "+ValidateTokenPublicRoute, s.handleWorkflow(s.workflow.ValidateTokenPublic, true))
	mux.HandleFunc("POST "+RefreshTokenRoute, s.handleWorkflow(s.workflow.RefreshToken, true))

	// admin routes
	if s.tokenValidator != nil && len(s.adminSubjects) > 0 {
		adminMux := http.NewServeMux()
		adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
		mux.Handle(AdminParent, middleware.AdminAuth(s.tokenValidator, s.adminSubjects)(adminMux))
	}

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
