package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/darmiel/tokenizer/internal/core"
)

var _ core.Auditor = (*FileAuditor)(nil)

// ErrAuditorClosed is returned by Log after Close.
var ErrAuditorClosed = errors.New("audit log is closed")

const (
	auditFileMode = 0o600
	auditDirMode  = 0o700
)

// FileAuditor appends audit entries to a file in JSON lines format.
// The log file is kept at mode 0600.
type FileAuditor struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	syncEach bool
	closed   bool
}

type FileOption func(*FileAuditor)

// WithSync flushes every entry to stable storage before Log returns.
func WithSync(enabled bool) FileOption {
	return func(f *FileAuditor) {
		f.syncEach = enabled
	}
}

func NewFileAuditor(filePath string, opts ...FileOption) (*FileAuditor, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, auditDirMode); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, auditFileMode)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	// an existing file keeps its mode on open
	info, err := file.Stat()
	if err == nil && info.Mode().Perm()&^auditFileMode != 0 {
		err = file.Chmod(auditFileMode)
	}
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("restricting audit log permissions: %w", err)
	}

	f := &FileAuditor{
		file:    file,
		encoder: json.NewEncoder(file),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrAuditorClosed
	}
	if err := f.encoder.Encode(entry); err != nil {
		return fmt.Errorf("writing audit log entry: %w", err)
	}
	if f.syncEach {
		if err := f.file.Sync(); err != nil {
			return fmt.Errorf("syncing audit log: %w", err)
		}
	}
	return nil
}

func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
