package runtime

import (
	"context"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Timer expiries and session termination.
// Dead-man and auto-close are mutually cancelling; whichever fires first finishes the
// session and the other is disarmed.

// OnAdapterReady recovers a session left in flight by a restart: the dead-man
// timer is re-armed and the current step is re-evaluated shortly after. A session
// that was already closing gets its auto-close timer back instead.
func (e *Engine) OnAdapterReady(ctx context.Context) error {
	return e.sessions.WithLock(ctx, e.adapterReady)
}

func (e *Engine) adapterReady(ctx context.Context) error {
	state, err := e.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !state.Active() {
		return nil
	}

	e.sched.After(e.timing.Deadman, ports.TimerDeadman)
	switch {
	case state.Closing:
		e.armAutoClose()
	case state.Step != domain.StepNone:
		e.sched.After(e.timing.RecoveryDelay, ports.TimerRecovery)
	}
	e.logger.Info("recovering session", "session", state.ID, "step", state.Step, "closing", state.Closing)
	return nil
}

// OnTimer handles the expiry of a timer armed through the scheduler.
func (e *Engine) OnTimer(ctx context.Context, token ports.TimerToken) error {
	return e.sessions.WithLock(ctx, func(ctx context.Context) error {
		return e.onTimer(ctx, token)
	})
}

func (e *Engine) onTimer(ctx context.Context, token ports.TimerToken) error {
	switch token {
	case ports.TimerStep, ports.TimerRecovery:
		return e.reevaluate(ctx)
	case ports.TimerDeadman:
		return e.finish(ctx, domain.FinishTimeout, false)
	case ports.TimerAutoClose:
		return e.finish(ctx, domain.FinishCompleted, true)
	}
	e.logger.Warn("unknown timer", "token", token)
	return nil
}

func (e *Engine) armAutoClose() {
	e.sched.Cancel(ports.TimerStep)
	e.sched.After(e.timing.ResultCloseDelay, ports.TimerAutoClose)
}

// finish marks the session DONE. Only the first caller per session has an effect.
func (e *Engine) finish(ctx context.Context, reason domain.FinishReason, dismiss bool) error {
	state, err := e.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !state.Active() {
		return nil
	}

	e.cancelAll()
	step := state.Step
	state.Finish()
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}
	if dismiss {
		e.adapter.Dismiss(ctx)
	}

	e.logger.Info("session finished", "session", state.ID, "step", step, "reason", reason)
	finished := state.Clone()
	finished.Step = step
	e.emitFinish(ctx, finished, reason)
	return nil
}

func (e *Engine) cancelAll() {
	for _, token := range []ports.TimerToken{ports.TimerStep, ports.TimerDeadman, ports.TimerAutoClose, ports.TimerRecovery} {
		e.sched.Cancel(token)
	}
}
