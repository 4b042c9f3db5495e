package ports

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// SessionStore persists the automation cursor so a session survives process restarts.
type SessionStore interface {
	// Load retrieves the current state.
	// Returns domain.ErrSessionNotFound if nothing has been saved yet.
	Load(ctx context.Context) (*domain.SessionState, error)

	// Save replaces the persisted state wholesale.
	Save(ctx context.Context, state *domain.SessionState) error

	// Clear removes the persisted state. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
