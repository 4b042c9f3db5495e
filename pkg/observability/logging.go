package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ussdpilot/pkg/domain"
)

// LogHooks returns lifecycle hooks that write each event to logger.
// Rejected triggers are logged at debug: they are expected noise.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTrigger: func(ctx context.Context, e *domain.TriggerEvent) {
			if !e.Accepted {
				logger.DebugContext(ctx, "trigger_ignored", "reason", e.Reason)
				return
			}
			logger.InfoContext(ctx, "trigger_accepted", "session", e.SessionID, "mode", e.Mode)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step",
				"session", e.SessionID,
				"mode", e.Mode,
				"step", e.StepID,
				"advanced", e.Advanced,
			)
		},
		OnFinish: func(ctx context.Context, e *domain.FinishEvent) {
			logger.InfoContext(ctx, "session_finished",
				"session", e.SessionID,
				"mode", e.Mode,
				"step", e.StepID,
				"reason", e.Reason,
			)
		},
	}
}
