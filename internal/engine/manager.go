package engine

import (
	"sync"
	"sync/atomic"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

var _ core.AccessPolicy = (*PolicyManager)(nil)

// PolicyManager holds the active Engine and allows swapping it at runtime (e.g. on SIGHUP).
type PolicyManager struct {
	currentEngine atomic.Pointer[Engine]
	mu            sync.Mutex
}

func NewManager(initialRules []config.PolicyRule) (*PolicyManager, error) {
	eng, err := New(initialRules)
	if err != nil {
		return nil, err
	}
	m := &PolicyManager{}
	m.currentEngine.Store(eng)
	return m, nil
}

func (m *PolicyManager) GetEngine() *Engine {
	return m.currentEngine.Load()
}

func (m *PolicyManager) Allow(identity core.Identity, req core.CredentialRequest) (bool, string) {
	return m.GetEngine().Allow(identity, req)
}

// Update compiles newRules and activates them. On error, the current rules stay active.
func (m *PolicyManager) Update(newRules []config.PolicyRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate, err := New(newRules)
	if err != nil {
		return err
	}
	m.currentEngine.Store(candidate)
	return nil
}
