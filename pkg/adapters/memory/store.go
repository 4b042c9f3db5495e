package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	state *domain.SessionState
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Save keeps a private copy of the state.
func (s *Store) Save(ctx context.Context, state *domain.SessionState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copied
	return nil
}

// Load retrieves a copy so callers can't mutate the stored state by pointer.
func (s *Store) Load(ctx context.Context) (*domain.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.state.Clone(), nil
}

// Clear drops the state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}
