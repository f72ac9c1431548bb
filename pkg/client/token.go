package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/darmiel/tokenizer/internal/api"
	"github.com/darmiel/tokenizer/internal/core"
)

// CreateToken requests a token for the identity in req.EncryptedCredentials.
// If req.TransactionID is empty, a random one is generated.
func (c *Client) CreateToken(ctx context.Context, req core.CredentialRequest) (*core.WorkflowResult, string, error) {
	return c.workflow(ctx, api.CreateTokenRoute, req)
}

// ValidateToken validates req.JWTToken for the identity in req.EncryptedCredentials.
func (c *Client) ValidateToken(ctx context.Context, req core.CredentialRequest) (*core.WorkflowResult, string, error) {
	return c.workflow(ctx, api.ValidateTokenRoute, req)
}

func (c *Client) CreateTokenPublic(ctx context.Context, req core.CredentialRequest) (*core.WorkflowResult, string, error) {
	return c.workflow(ctx, api.CreateTokenPublicRoute, req)
}

func (c *Client) ValidateTokenPublic(ctx context.Context, req core.CredentialRequest) (*core.WorkflowResult, string, error) {
	return c.workflow(ctx, api.ValidateTokenPublicRoute, req)
}

// RefreshToken exchanges the refresh token in req.JWTToken for a new access token.
func (c *Client) RefreshToken(ctx context.Context, req core.CredentialRequest) (*core.WorkflowResult, string, error) {
	return c.workflow(ctx, api.RefreshTokenRoute, req)
}

// workflow calls a token route. Failed workflows return the decoded result together with an APIError.
func (c *Client) workflow(ctx context.Context, route string, cr core.CredentialRequest) (*core.WorkflowResult, string, error) {
	if cr.TransactionID == "" {
		cr.TransactionID = uuid.NewString()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url().setPath(route).build(), http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(api.HeaderCredentials, cr.EncryptedCredentials)
	req.Header.Set(api.HeaderConsumerID, cr.ConsumerID)
	req.Header.Set(api.HeaderFunctionalID, cr.FunctionalID)
	req.Header.Set(api.HeaderTransactionID, cr.TransactionID)
	if cr.JWTToken != "" {
		req.Header.Set(api.HeaderAuthToken, cr.JWTToken)
	}
	if cr.RefreshWindow != 0 {
		req.Header.Set(api.HeaderRefreshWindow, strconv.Itoa(cr.RefreshWindow))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)
	correlation := correlationFromResponse(resp)

	var result core.WorkflowResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, correlation, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return &result, correlation, APIError{
			StatusCode:    resp.StatusCode,
			CorrelationID: correlation,
			Message:       result.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return &result, correlation, APIError{
			StatusCode:    resp.StatusCode,
			CorrelationID: correlation,
			Message:       http.StatusText(resp.StatusCode),
		}
	}
	return &result, correlation, nil
}
