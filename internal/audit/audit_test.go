package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

func TestInMemoryAuditor(t *testing.T) {
	a := NewInMemoryAuditor(3)
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := a.Log(core.AuditEntry{ID: id}); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	recent, _ := a.GetRecent(10)
	if len(recent) != 3 || recent[0].ID != "b" || recent[2].ID != "d" {
		t.Errorf("GetRecent() = %+v, want [b c d]", recent)
	}

	recent, _ = a.GetRecent(1)
	if len(recent) != 1 || recent[0].ID != "d" {
		t.Errorf("GetRecent(1) = %+v, want [d]", recent)
	}

	found, _ := a.Find(func(e core.AuditEntry) bool { return e.ID != "c" }, 0)
	if len(found) != 2 {
		t.Errorf("Find() = %+v, want 2 entries", found)
	}
}

func TestFileAuditor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a, err := NewFileAuditor(path)
	if err != nil {
		t.Fatalf("NewFileAuditor() error = %v", err)
	}
	_ = a.Log(core.AuditEntry{ID: "one", Action: "token.create", StatusCode: 200, Granted: true})
	_ = a.Log(core.AuditEntry{ID: "two", Action: "token.validate", StatusCode: 403})
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry core.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		ids = append(ids, entry.ID)
	}
	if len(ids) != 2 || ids[0] != "one" || ids[1] != "two" {
		t.Errorf("ids = %v, want [one two]", ids)
	}
}

func TestFileAuditor_Permissions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		existing os.FileMode
	}{
		{name: "New File", path: filepath.Join(dir, "new.jsonl")},
		{name: "Missing Directory", path: filepath.Join(dir, "nested", "logs", "audit.jsonl")},
		{name: "World Readable File", path: filepath.Join(dir, "loose.jsonl"), existing: 0o644},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.existing != 0 {
				if err := os.WriteFile(tt.path, nil, tt.existing); err != nil {
					t.Fatal(err)
				}
				// umask may have masked the requested mode
				if err := os.Chmod(tt.path, tt.existing); err != nil {
					t.Fatal(err)
				}
			}

			a, err := NewFileAuditor(tt.path, WithSync(true))
			if err != nil {
				t.Fatalf("NewFileAuditor() error = %v", err)
			}
			defer a.Close()
			if err := a.Log(core.AuditEntry{ID: "one", Action: "token.create"}); err != nil {
				t.Fatalf("Log() error = %v", err)
			}

			info, err := os.Stat(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("mode = %o, want 600", perm)
			}
			if info.Size() == 0 {
				t.Error("synced entry not on disk")
			}
		})
	}
}

func TestFileAuditor_LogAfterClose(t *testing.T) {
	a, err := NewFileAuditor(filepath.Join(t.TempDir(), "audit.jsonl"))
	if err != nil {
		t.Fatalf("NewFileAuditor() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := a.Log(core.AuditEntry{ID: "late"}); !errors.Is(err, ErrAuditorClosed) {
		t.Errorf("Log() after Close error = %v, want ErrAuditorClosed", err)
	}
}

func TestNoopAuditor_LogsDecision(t *testing.T) {
	var buf bytes.Buffer
	n := &NoopAuditor{logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	if err := n.Log(core.AuditEntry{ID: "corr-1", Action: "token.create", StatusCode: 403}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr-1"`, `"action":"token.create"`, `"status":403`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s does not contain %s", out, want)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AuditConfig
		want    string
		wantErr bool
	}{
		{name: "Disabled", cfg: config.AuditConfig{}, want: "*audit.NoopAuditor"},
		{name: "Memory", cfg: config.AuditConfig{Enabled: true, Type: "memory"}, want: "*audit.InMemoryAuditor"},
		{name: "File", cfg: config.AuditConfig{Enabled: true, Type: "file", Path: filepath.Join(t.TempDir(), "a.log")}, want: "*audit.FileAuditor"},
		{name: "Unknown", cfg: config.AuditConfig{Enabled: true, Type: "kafka"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer got.Close()
			if typ := typeName(got); typ != tt.want {
				t.Errorf("New() = %s, want %s", typ, tt.want)
			}
		})
	}
}

func typeName(a core.Auditor) string {
	switch a.(type) {
	case *NoopAuditor:
		return "*audit.NoopAuditor"
	case *InMemoryAuditor:
		return "*audit.InMemoryAuditor"
	case *FileAuditor:
		return "*audit.FileAuditor"
	default:
		return "unknown"
	}
}

func TestCalculateFingerprint(t *testing.T) {
	a := CalculateFingerprint(TokenizerFingerprintType, "token-a")
	if a == "" || a == CalculateFingerprint(TokenizerFingerprintType, "token-b") {
		t.Errorf("fingerprints must be non-empty and distinct, got %q", a)
	}
	if got := CalculateFingerprint("unknown", "token-a"); got != "(n/a)" {
		t.Errorf("CalculateFingerprint(unknown) = %q, want (n/a)", got)
	}
	if got := CalculateFingerprint(TokenizerFingerprintType, ""); got != "" {
		t.Errorf("CalculateFingerprint(empty) = %q, want empty", got)
	}
}
