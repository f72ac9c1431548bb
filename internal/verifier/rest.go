package verifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/audit"
	"github.com/darmiel/tokenizer/internal/core"
)

const RESTType = "rest"

// Header names of the delegated authorization contract.
const (
	HeaderCredentials   = "credentials"
	HeaderApplication   = "application"
	HeaderConsumerID    = "consumer-api-id"
	HeaderFunctionalID  = "functional-id"
	HeaderTransactionID = "transaction-id"
)

var _ core.IdentityVerifier = (*RESTVerifier)(nil)

type RESTConfig struct {
	// URL of the authorization endpoint.
	URL string `mapstructure:"url"`

	// Application is sent in the "application" header. Optional.
	Application string `mapstructure:"application"`

	// InsecureSkipVerify disables TLS certificate verification. Only for test environments.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`

	Timeout time.Duration `mapstructure:"-"`
}

// RESTVerifier delegates the identity check to a remote authorization endpoint.
// The endpoint answers 200 for a known user; the request has no body.
type RESTVerifier struct {
	url         string
	application string
	httpClient  *http.Client
}

func NewREST(cfg RESTConfig) (*RESTVerifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url '%s'", cfg.URL)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test environments
	}
	return &RESTVerifier{
		url:         cfg.URL,
		application: cfg.Application,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

func (r *RESTVerifier) Type() string {
	return RESTType
}

func (r *RESTVerifier) Verify(ctx context.Context, req core.VerifyRequest) (core.Identity, error) {
	const op = "verifier.rest"
	logger := log.Ctx(ctx)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, http.NoBody)
	if err != nil {
		return core.Identity{}, core.E(core.KindInternal, op, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set(HeaderCredentials, req.EncryptedCredentials)
	httpReq.Header.Set(HeaderApplication, r.application)
	httpReq.Header.Set(HeaderConsumerID, req.ConsumerID)
	httpReq.Header.Set(HeaderFunctionalID, req.FunctionalID)
	httpReq.Header.Set(HeaderTransactionID, req.TransactionID)
	httpReq.Header.Set("User-Agent", audit.CreateUserAgent(core.CorrelationID(ctx), req.TransactionID))

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		// ctx.Err() is preferred so that errors.Is(err, context.Canceled) holds for the caller
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Identity{}, core.E(core.KindNetwork, op, fmt.Errorf("authorization request aborted: %w", ctxErr))
		}
		return core.Identity{}, core.E(core.KindNetwork, op, fmt.Errorf("performing request: %w", err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	logger.Debug().Int("status", resp.StatusCode).Msg("authorization endpoint answered")

	switch resp.StatusCode {
	case http.StatusOK:
		return core.Identity{
			Verified: true,
			Subject:  req.Credentials.Username,
			Source:   RESTType,
		}, nil
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return core.Identity{}, core.Errorf(core.KindNetwork, op, "authorization endpoint unavailable (status %d)", resp.StatusCode)
	default:
		return core.NotFound(RESTType), nil
	}
}
