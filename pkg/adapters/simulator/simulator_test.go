package simulator_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/ussdpilot/pkg/adapters/simulator"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/screen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingListener struct {
	changed atomic.Int32
	ready   atomic.Int32
}

func (l *countingListener) SnapshotChanged() { l.changed.Add(1) }
func (l *countingListener) AdapterReady()    { l.ready.Add(1) }

// answer types value into the dialog's field and presses SEND.
func answer(t *testing.T, sim *simulator.Simulator, value string) {
	t.Helper()
	ctx := context.Background()
	snap := sim.Snapshot(ctx)
	require.NotNil(t, snap)
	root := snap.Windows[0]
	field := screen.EditableTarget(root)
	require.NotNil(t, field)
	require.True(t, sim.SetText(ctx, field, value))
	send := screen.ActionTarget(root, []string{"SEND"})
	require.NotNil(t, send)
	require.True(t, sim.Activate(ctx, send))
}

func TestSimulator_SendMoneyFlow(t *testing.T) {
	l := &countingListener{}
	sim := simulator.New(simulator.WithListener(l), simulator.WithPIN("4321"), simulator.WithConfirmation(true))
	ctx := context.Background()

	assert.Nil(t, sim.Snapshot(ctx))
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
	assert.Equal(t, simulator.PageMain, sim.Page())

	for _, in := range []string{"1", "1", "0712345678", "500", "4321"} {
		answer(t, sim, in)
	}
	assert.Equal(t, simulator.PageConfirm, sim.Page())
	assert.Contains(t, screen.Text(sim.Snapshot(ctx).Windows[0]), "Pay Ksh500 to 0712345678?")

	answer(t, sim, "1")
	assert.Equal(t, simulator.PageResult, sim.Page())
	assert.Equal(t, "Confirmed. Ksh500 paid to 0712345678.", sim.Result())
	assert.Equal(t, map[string]string{"phone": "0712345678", "amount": "500", "pin": "4321"}, sim.Values())
	assert.Equal(t, int32(7), l.changed.Load())

	sim.Dismiss(ctx)
	assert.False(t, sim.Open())
	assert.Equal(t, 1, sim.Dismissals())
	assert.Zero(t, sim.StrayWrites())
}

func TestSimulator_OtherModes(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		result string
	}{
		{"till", []string{"6", "2", "55555", "200", "1234", "1"}, "Confirmed. Ksh200 paid to till 55555."},
		{"paybill", []string{"6", "1", "888880", "ACC-9", "1500", "1234", "1"}, "Confirmed. Ksh1500 paid to paybill 888880 account ACC-9."},
		{"withdraw", []string{"2", "1", "112233", "7", "300", "1234", "1"}, "Confirmed. Ksh300 paid to agent 112233 store 7."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := simulator.New(simulator.WithConfirmation(true))
			require.NoError(t, sim.OpenSession(context.Background(), domain.DefaultAccessCode))
			for _, in := range tt.inputs {
				answer(t, sim, in)
			}
			assert.Equal(t, tt.result, sim.Result())
		})
	}
}

func TestSimulator_Outcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong pin", func(t *testing.T) {
		sim := simulator.New(simulator.WithPIN("0000"))
		require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
		for _, in := range []string{"1", "1", "0712345678", "10", "9999"} {
			answer(t, sim, in)
		}
		assert.Equal(t, "Wrong PIN. Please try again.", sim.Result())
	})

	t.Run("no confirmation page by default", func(t *testing.T) {
		sim := simulator.New()
		require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
		for _, in := range []string{"6", "2", "42", "10", "1234"} {
			answer(t, sim, in)
		}
		assert.Equal(t, simulator.PageResult, sim.Page())
		assert.Equal(t, "Confirmed. Ksh10 paid to till 42.", sim.Result())
	})

	t.Run("invalid menu choice", func(t *testing.T) {
		sim := simulator.New()
		require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
		answer(t, sim, "9")
		assert.Equal(t, "Invalid input", sim.Result())
	})

	t.Run("cancel at confirmation", func(t *testing.T) {
		sim := simulator.New(simulator.WithConfirmation(true))
		require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
		for _, in := range []string{"6", "2", "42", "10", "1234", "2"} {
			answer(t, sim, in)
		}
		assert.Equal(t, "Transaction cancelled.", sim.Result())
	})

	t.Run("unknown access code", func(t *testing.T) {
		sim := simulator.New()
		err := sim.OpenSession(ctx, "*999#")
		assert.ErrorIs(t, err, simulator.ErrUnknownAccessCode)
		assert.False(t, sim.Open())
	})
}

func TestSimulator_ResultPageClosesOnOK(t *testing.T) {
	ctx := context.Background()
	sim := simulator.New()
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
	answer(t, sim, "9")

	root := sim.Snapshot(ctx).Windows[0]
	assert.Nil(t, screen.EditableTarget(root))
	ok := screen.ActionTarget(root, []string{"OK"})
	require.NotNil(t, ok)
	assert.True(t, sim.Activate(ctx, ok))
	assert.False(t, sim.Open())
}

func TestSimulator_RejectsNodesFromOlderRenders(t *testing.T) {
	ctx := context.Background()
	sim := simulator.New()
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))

	old := screen.EditableTarget(sim.Snapshot(ctx).Windows[0])
	sim.Snapshot(ctx)

	assert.False(t, sim.SetText(ctx, old, "1"))
	assert.False(t, sim.Activate(ctx, &domain.ScreenNode{Text: "SEND"}))
}

func TestSimulator_DistractorIsNotEligible(t *testing.T) {
	ctx := context.Background()
	sim := simulator.New(simulator.WithDistractor(domain.DefaultOwnerID))
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))

	snap := sim.Snapshot(ctx)
	require.Len(t, snap.Windows, 2)
	m := screen.NewMatcher()
	assert.Same(t, snap.Windows[0], m.SessionRoot(snap))

	field := screen.EditableTarget(snap.Windows[1])
	require.NotNil(t, field)
	sim.SetText(ctx, field, "1234")
	assert.Equal(t, 1, sim.StrayWrites())
}

func TestSimulator_StaleAuthRenders(t *testing.T) {
	ctx := context.Background()
	sim := simulator.New(simulator.WithStaleAuthRenders(2), simulator.WithConfirmation(true))
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
	for _, in := range []string{"6", "2", "42", "10", "1234"} {
		answer(t, sim, in)
	}

	for i := 0; i < 2; i++ {
		root := sim.Snapshot(ctx).Windows[0]
		assert.True(t, screen.ContainsAny(root, domain.DefaultAuthPrompts), "render %d", i)
	}
	root := sim.Snapshot(ctx).Windows[0]
	assert.Contains(t, screen.Text(root), "1. Confirm")
}

func TestSimulator_TranscriptMasksPIN(t *testing.T) {
	ctx := context.Background()
	sim := simulator.New()
	require.NoError(t, sim.OpenSession(ctx, domain.DefaultAccessCode))
	for _, in := range []string{"6", "2", "42", "10", "1234"} {
		answer(t, sim, in)
	}

	var sent []string
	for _, e := range sim.Transcript() {
		if e.Action == "send" {
			sent = append(sent, e.Value)
		}
	}
	assert.Equal(t, []string{"6", "2", "42", "10", "****"}, sent)
}

func TestSimulator_Ready(t *testing.T) {
	l := &countingListener{}
	sim := simulator.New()
	sim.Ready()
	sim.SetListener(l)
	sim.Ready()
	assert.Equal(t, int32(1), l.ready.Load())
}
