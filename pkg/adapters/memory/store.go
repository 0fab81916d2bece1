// Package memory provides an in-memory StateStore, the default for single
// process deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/necyberteam/qabot/pkg/domain"
)

// Store implements ports.StateStore in memory. Safe for concurrent use.
type Store struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.State),
	}
}

func copyState(state *domain.State) *domain.State {
	copied := *state
	copied.History = append([]string(nil), state.History...)
	copied.Context = make(map[string]any, len(state.Context))
	for k, v := range state.Context {
		copied.Context[k] = v
	}
	return &copied
}

// Save persists the state in memory. The stored value is a copy so later
// caller mutations cannot leak in, mirroring serialization semantics.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	copied := copyState(state)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the state from memory, returning a copy.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copyState(state), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
