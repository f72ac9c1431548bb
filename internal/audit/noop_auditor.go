package audit

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/core"
)

var _ core.Auditor = (*NoopAuditor)(nil)

// NoopAuditor drops entries when auditing is disabled.
// Decisions still show up in the debug log so a disabled audit trail is not silent.
type NoopAuditor struct {
	logger zerolog.Logger
}

func NewNoopAuditor() *NoopAuditor {
	return &NoopAuditor{logger: log.Logger}
}

func (n *NoopAuditor) Log(entry core.AuditEntry) error {
	n.logger.Debug().
		Str("correlation_id", entry.ID).
		Str("action", entry.Action).
		Int("status", entry.StatusCode).
		Bool("granted", entry.Granted).
		Msg("audit disabled, decision not recorded")
	return nil
}

func (n *NoopAuditor) Close() error {
	return nil
}
