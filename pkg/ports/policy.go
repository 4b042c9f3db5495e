package ports

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// PolicySource provides the allow-list and auth configuration. The engine never writes it.
type PolicySource interface {
	Policy(ctx context.Context) (domain.Policy, error)
}
