package runtime_test

import (
	"testing"
	"time"

	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernor_DeadmanFinishesWithoutDismiss(t *testing.T) {
	h := newHarness(t)
	screen, _, _ := promptScreen("1. Send Money")
	h.adapter.show(screen)

	require.NoError(t, h.engine.Begin(h.ctx, sendMoney))
	h.changed()
	h.sched.Advance(domain.DefaultInitialDelay)
	h.sched.Advance(domain.DefaultStepDelay)
	h.sched.Advance(domain.DefaultStepDelay)
	require.Equal(t, domain.StepSendAmount, h.state().Step)

	h.adapter.show(waitScreen())
	h.sched.Advance(domain.DefaultDeadman - h.sched.Now() - time.Millisecond)

	s := h.state()
	assert.True(t, s.Pending)
	assert.Equal(t, domain.StepSendAmount, s.Step)

	h.sched.Advance(time.Millisecond)

	s = h.state()
	assert.False(t, s.Pending)
	assert.Equal(t, domain.StepDone, s.Step)
	assert.Zero(t, h.adapter.dismissals)
	assert.Zero(t, h.sched.Pending())

	require.Len(t, h.finishes, 1)
	assert.Equal(t, domain.FinishTimeout, h.finishes[0].Reason)
	assert.Equal(t, domain.StepSendAmount, h.finishes[0].StepID)
}

func TestGovernor_ConfirmRetriesAreCapped(t *testing.T) {
	h := newHarness(t)
	req := sendMoney
	req.ConfirmAfterAuth = true
	h.seed(req, domain.StepConfirm)
	h.adapter.show(waitScreen())

	require.NoError(t, h.engine.OnAdapterReady(h.ctx))
	h.sched.Advance(domain.DefaultRecoveryDelay)
	for i := 0; i < domain.DefaultMaxConfirmRetries-1; i++ {
		h.sched.Advance(domain.DefaultStepDelay)
	}

	s := h.state()
	assert.Equal(t, domain.DefaultMaxConfirmRetries, s.ConfirmRetryCount)
	assert.Len(t, h.steps, domain.DefaultMaxConfirmRetries)
	assert.False(t, h.sched.Armed(ports.TimerStep))

	// A ninth evaluation makes no attempt at all.
	h.changed()
	assert.Len(t, h.steps, domain.DefaultMaxConfirmRetries)
	assert.Zero(t, h.adapter.actions())

	s = h.state()
	assert.True(t, s.Pending)
	assert.Equal(t, domain.StepConfirm, s.Step)
	assert.Equal(t, domain.DefaultMaxConfirmRetries, s.ConfirmRetryCount)

	h.sched.Advance(domain.DefaultDeadman)
	s = h.state()
	assert.False(t, s.Pending)
	assert.Equal(t, domain.StepDone, s.Step)
	assert.Zero(t, h.adapter.dismissals)
}

func TestGovernor_ConfirmSkipsStaleAuthScreen(t *testing.T) {
	h := newHarness(t)
	req := sendMoney
	req.ConfirmAfterAuth = true
	h.seed(req, domain.StepConfirm)

	h.adapter.show(dialog(text("Enter M-PESA PIN"), input("PIN"), button("SEND")))
	h.changed()

	assert.Zero(t, h.adapter.actions())
	assert.Zero(t, h.state().ConfirmRetryCount)
	left, ok := h.sched.Remaining(ports.TimerStep)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultStepDelay, left)

	screen, field, send := promptScreen("Confirm Ksh500 to 0712345678? 1 Yes 2 No")
	h.adapter.show(screen)
	h.sched.Advance(domain.DefaultStepDelay)

	require.Len(t, h.adapter.writes, 1)
	assert.Same(t, field, h.adapter.writes[0].node)
	assert.Equal(t, "1", h.adapter.writes[0].value)
	assert.Equal(t, []*domain.ScreenNode{send}, h.adapter.activated)

	s := h.state()
	assert.True(t, s.Closing)
	left, ok = h.sched.Remaining(ports.TimerAutoClose)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultResultCloseDelay, left)

	h.sched.Advance(domain.DefaultResultCloseDelay)
	assert.Equal(t, 1, h.adapter.dismissals)
	assert.Equal(t, domain.StepDone, h.state().Step)
}

func TestGovernor_SimultaneousTimers(t *testing.T) {
	timing := domain.DefaultTiming()
	timing.Deadman = 2 * time.Second
	timing.ResultCloseDelay = 2 * time.Second

	t.Run("dead-man armed first wins", func(t *testing.T) {
		h := newHarness(t, runtime.WithTiming(timing))
		h.seed(sendMoney, domain.StepSendAuth)
		screen, _, _ := promptScreen("Enter M-PESA PIN")
		h.adapter.show(screen)

		require.NoError(t, h.engine.OnAdapterReady(h.ctx))
		h.changed()
		require.True(t, h.sched.Armed(ports.TimerAutoClose))

		h.sched.Advance(timing.Deadman)

		require.Len(t, h.finishes, 1)
		assert.Equal(t, domain.FinishTimeout, h.finishes[0].Reason)
		assert.Zero(t, h.adapter.dismissals)
		assert.Zero(t, h.sched.Pending())
	})

	t.Run("auto-close armed first wins", func(t *testing.T) {
		h := newHarness(t, runtime.WithTiming(timing))
		h.seed(sendMoney, domain.StepSendAuth)
		screen, _, _ := promptScreen("Enter M-PESA PIN")
		h.adapter.show(screen)

		h.changed()
		require.NoError(t, h.engine.OnAdapterReady(h.ctx))

		h.sched.Advance(timing.Deadman)

		require.Len(t, h.finishes, 1)
		assert.Equal(t, domain.FinishCompleted, h.finishes[0].Reason)
		assert.Equal(t, 1, h.adapter.dismissals)
		assert.Zero(t, h.sched.Pending())
	})
}

func TestGovernor_RecoveryReevaluates(t *testing.T) {
	h := newHarness(t)
	h.seed(paybill, domain.StepPayAmount)
	screen, _, _ := promptScreen("Enter Amount")
	h.adapter.show(screen)

	require.NoError(t, h.engine.OnAdapterReady(h.ctx))

	left, ok := h.sched.Remaining(ports.TimerDeadman)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultDeadman, left)

	h.sched.Advance(domain.DefaultRecoveryDelay)

	assert.Equal(t, []string{"1500"}, h.adapter.values())
	assert.Equal(t, domain.StepPayAuth, h.state().Step)
}

func TestGovernor_RecoveryBeforeEntryOnlyArmsDeadman(t *testing.T) {
	h := newHarness(t)
	h.seed(paybill, domain.StepNone)

	require.NoError(t, h.engine.OnAdapterReady(h.ctx))

	assert.True(t, h.sched.Armed(ports.TimerDeadman))
	assert.False(t, h.sched.Armed(ports.TimerRecovery))
}

func TestGovernor_RecoveryWhileClosingDismissesOnce(t *testing.T) {
	h := newHarness(t)
	s := h.seed(paybill, domain.StepPayAuth)
	s.Closing = true
	require.NoError(t, h.store.Save(h.ctx, s))
	h.adapter.show(dialog(text("Confirmed. Ksh1500 paid"), button("OK")))

	require.NoError(t, h.engine.OnAdapterReady(h.ctx))

	left, ok := h.sched.Remaining(ports.TimerAutoClose)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultResultCloseDelay, left)
	assert.False(t, h.sched.Armed(ports.TimerRecovery))

	h.sched.Advance(domain.DefaultResultCloseDelay)

	s = h.state()
	assert.False(t, s.Pending)
	assert.Equal(t, domain.StepDone, s.Step)
	assert.Equal(t, 1, h.adapter.dismissals)
	assert.Empty(t, h.adapter.writes)
	assert.Zero(t, h.sched.Pending())

	require.Len(t, h.finishes, 1)
	assert.Equal(t, domain.FinishCompleted, h.finishes[0].Reason)
	assert.Equal(t, domain.StepPayAuth, h.finishes[0].StepID)
}
