package client

import (
	"context"

	"github.com/darmiel/tokenizer/internal/api"
	"github.com/darmiel/tokenizer/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	CorrelationID string
	Subject       string
	TransactionID string
	Fingerprint   string
}

// ListAudits retrieves the latest audit entries from the server. Requires an admin token.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.CorrelationID != "" {
		ub = ub.addQueryParam("correlation_id", opts.CorrelationID)
	}
	if opts.Subject != "" {
		ub = ub.addQueryParam("subject", opts.Subject)
	}
	if opts.TransactionID != "" {
		ub = ub.addQueryParam("transaction_id", opts.TransactionID)
	}
	if opts.Fingerprint != "" {
		ub = ub.addQueryParam("fingerprint", opts.Fingerprint)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
