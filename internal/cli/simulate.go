package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/pkg/adapters/simulator"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/trigger"
)

// ErrSimulationTimeout is returned when the session does not finish in time.
var ErrSimulationTimeout = errors.New("simulation did not finish in time")

// SimulateOptions configures a simulated run.
type SimulateOptions struct {
	Message trigger.Message
	// PIN the simulated menu accepts. Defaults to the configured auth code.
	PIN         string
	ConfirmPage bool
	Distractor  bool
	StaleAuth   int
	// Timeout bounds the whole run. Defaults to the dead-man delay plus a second.
	Timeout time.Duration
}

// SimulationResult summarises a simulated run.
type SimulationResult struct {
	Request    *domain.TransactionRequest
	Finish     *domain.FinishEvent
	Result     string
	Transcript []simulator.Entry
}

// Simulate drives the configured engine against the in-memory menu until the
// session triggered by opts.Message finishes. A rejected message returns a
// result with a nil Request.
func Simulate(ctx context.Context, rt *Runtime, opts SimulateOptions, hooks ...domain.LifecycleHooks) (*SimulationResult, error) {
	cfg := rt.Config
	pin := opts.PIN
	if pin == "" {
		pin = cfg.Automation.AuthCode
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = cfg.Timing.Deadman + time.Second
	}

	simOpts := []simulator.Option{
		simulator.WithPIN(pin),
		simulator.WithConfirmation(opts.ConfirmPage),
		simulator.WithAccessCode(cfg.Automation.AccessCode),
		simulator.WithStaleAuthRenders(opts.StaleAuth),
		simulator.WithLogger(rt.Logger),
	}
	if opts.Distractor {
		simOpts = append(simOpts, simulator.WithDistractor(cfg.Automation.OwnerID))
	}
	sim := simulator.New(simOpts...)

	var (
		mu       sync.Mutex
		finish   *domain.FinishEvent
		finished = make(chan struct{})
	)
	watch := domain.LifecycleHooks{
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			// A leftover session from an earlier run is superseded first.
			if e.Reason == domain.FinishSuperseded {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if finish == nil {
				ev := *e
				finish = &ev
				close(finished)
			}
		},
	}

	pilot, err := ussdpilot.New(sim, rt.PilotOptions(append(hooks, watch)...)...)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pilot.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			rt.Logger.Error("event loop stopped", "err", err)
		}
	}()
	defer func() {
		cancel()
		<-done
	}()

	req, err := pilot.SubmitMessage(ctx, opts.Message)
	res := &SimulationResult{Request: req}
	if req == nil {
		return res, err
	}
	if err == nil {
		select {
		case <-finished:
		case <-time.After(timeout):
			err = fmt.Errorf("%w after %s", ErrSimulationTimeout, timeout)
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	mu.Lock()
	res.Finish = finish
	mu.Unlock()
	res.Result = sim.Result()
	res.Transcript = sim.Transcript()
	return res, err
}
