package audit

import (
	"fmt"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

// New creates the auditor described by cfg. A disabled audit config yields a NoopAuditor.
func New(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "memory":
		return NewInMemoryAuditor(DefaultMemoryEntries), nil
	case "file", "":
		auditor, err := NewFileAuditor(cfg.Path, WithSync(cfg.Sync))
		if err != nil {
			return nil, fmt.Errorf("creating file auditor: %w", err)
		}
		return auditor, nil
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
}
