package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/api/presenter"
	"github.com/darmiel/tokenizer/internal/core"
)

// TokenValidator validates access tokens issued by this service.
type TokenValidator interface {
	Validate(token string) (*core.Claims, error)
}

// AdminAuth only lets requests through that carry a valid access token of one of the admin subjects.
func AdminAuth(validator TokenValidator, subjects []string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			if tokenStr == "" {
				presenter.Error(w, r, "login required", http.StatusUnauthorized)
				return
			}

			claims, err := validator.Validate(tokenStr)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("invalid admin token")
				presenter.Error(w, r, "invalid session token", http.StatusUnauthorized)
				return
			}

			if !slices.Contains(subjects, claims.Subject) {
				presenter.Error(w, r, "insufficient privileges", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
