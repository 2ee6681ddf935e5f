package session

import (
	"context"
	"sync"

	"github.com/ChertChill/otp-service/internal/otp/domain"
)

// Store holds live sessions keyed by token. Implementations must make each
// operation atomic; the Manager never does read-then-write sequences that
// would need a wider lock. The interface is context-aware so a persistent
// or distributed backend can replace Memory without touching call sites.
type Store interface {
	Put(ctx context.Context, token string, s domain.Session) error
	Get(ctx context.Context, token string) (domain.Session, bool, error)
	Delete(ctx context.Context, token string) error
}

// Memory is the default in-process Store: a mutex-guarded map. Expired
// entries are evicted lazily by the Manager on first observation; tokens
// are only ever consulted on use, so no background sweep is needed.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]domain.Session)}
}

func (m *Memory) Put(ctx context.Context, token string, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = s
	return nil
}

func (m *Memory) Get(ctx context.Context, token string) (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	return s, ok, nil
}

func (m *Memory) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Len reports the number of stored sessions, expired or not. Used by tests
// and the readiness probe.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
