package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/telescopium/polaralign/pkg/metrics"
)

// MemStore is a map-backed, in-memory Store implementation. Sessions are
// transient by design: they live for one calibration run and nothing is
// persisted across restarts.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemStore creates an empty in-memory session store.
func NewMemStore(_ context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		sessions: make(map[string]Session, defaultInitialCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new session.
func (m *MemStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ID)
	}
	m.sessions[s.ID] = s
	metrics.UpdateActiveSessions(len(m.sessions))
	return nil
}

// Get returns the session for id.
func (m *MemStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Put replaces an existing session.
func (m *MemStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	m.sessions[s.ID] = s
	return nil
}

// Delete removes the session for id.
func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	metrics.UpdateActiveSessions(len(m.sessions))
	return nil
}

// Count returns the number of sessions tracked.
func (m *MemStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
