package ports

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// SessionAdapter is the boundary to the platform that renders the interactive menu.
// All calls are fire-and-forget: success or failure is reported synchronously.
type SessionAdapter interface {
	// OpenSession asks the platform to surface the menu session for the access code.
	OpenSession(ctx context.Context, accessCode string) error

	// Snapshot returns the current element tree, or nil when nothing is visible.
	Snapshot(ctx context.Context) *domain.Snapshot

	// SetText writes value into the node. Returns false if the node refused it.
	SetText(ctx context.Context, node *domain.ScreenNode, value string) bool

	// Activate clicks the node. Returns false if the node does not accept activation.
	Activate(ctx context.Context, node *domain.ScreenNode) bool

	// Dismiss issues a single back/dismiss action.
	Dismiss(ctx context.Context)
}

// SessionListener receives the adapter's callbacks.
type SessionListener interface {
	SnapshotChanged()
	AdapterReady()
}
