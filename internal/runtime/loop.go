package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Handler consumes the events dispatched by a Loop. *Engine implements it.
type Handler interface {
	Begin(ctx context.Context, req domain.TransactionRequest) error
	OnSnapshotChanged(ctx context.Context) error
	OnAdapterReady(ctx context.Context) error
	OnTimer(ctx context.Context, token ports.TimerToken) error
}

type eventKind int

const (
	eventSnapshot eventKind = iota
	eventReady
	eventTimer
	eventBegin
)

type event struct {
	kind  eventKind
	token ports.TimerToken
	gen   uint64
	req   domain.TransactionRequest
	reply chan error
}

// Loop serializes adapter notifications, timer expiries and new requests onto a
// single goroutine. It is also the production ports.Scheduler: timers are real
// time.AfterFunc timers whose expiry is posted back onto the queue.
//
// Posting never blocks, so adapters may notify from inside an engine call.
type Loop struct {
	logger *slog.Logger

	mu       sync.Mutex
	queue    []event
	snapshot bool
	timers   map[ports.TimerToken]*time.Timer
	gens     map[ports.TimerToken]uint64
	stopped  bool

	wake chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used for dispatch errors.
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates an idle loop. Events posted before Run are kept until it starts.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		logger: logging.NewNop(),
		timers: make(map[ports.TimerToken]*time.Timer),
		gens:   make(map[ports.TimerToken]uint64),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run dispatches events to h until ctx is cancelled. Outstanding timers are
// stopped and waiting Begin calls fail with domain.ErrLoopStopped.
func (l *Loop) Run(ctx context.Context, h Handler) error {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for {
			ev, ok := l.next()
			if !ok {
				break
			}
			l.dispatch(ctx, h, ev)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// SnapshotChanged queues a snapshot evaluation. Notifications arriving while one is
// already queued are coalesced into it.
func (l *Loop) SnapshotChanged() {
	l.mu.Lock()
	if l.stopped || l.snapshot {
		l.mu.Unlock()
		return
	}
	l.snapshot = true
	l.queue = append(l.queue, event{kind: eventSnapshot})
	l.mu.Unlock()
	l.signal()
}

// AdapterReady queues a recovery check.
func (l *Loop) AdapterReady() {
	l.post(event{kind: eventReady})
}

// Begin queues a new request and waits for the engine to accept or reject it.
func (l *Loop) Begin(ctx context.Context, req domain.TransactionRequest) error {
	reply := make(chan error, 1)
	if !l.post(event{kind: eventBegin, req: req, reply: reply}) {
		return domain.ErrLoopStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After arms token to fire after d, superseding any earlier arming of the same token.
func (l *Loop) After(d time.Duration, token ports.TimerToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	if t, ok := l.timers[token]; ok {
		t.Stop()
	}
	l.gens[token]++
	gen := l.gens[token]
	l.timers[token] = time.AfterFunc(d, func() {
		l.post(event{kind: eventTimer, token: token, gen: gen})
	})
}

// Cancel disarms token. An expiry already queued is discarded on dispatch.
func (l *Loop) Cancel(token ports.TimerToken) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[token]; ok {
		t.Stop()
		delete(l.timers, token)
	}
	l.gens[token]++
}

func (l *Loop) post(ev event) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, ev)
	l.mu.Unlock()
	l.signal()
	return true
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return event{}, false
	}
	ev := l.queue[0]
	l.queue[0] = event{}
	l.queue = l.queue[1:]
	if ev.kind == eventSnapshot {
		l.snapshot = false
	}
	return ev, true
}

// current reports whether a timer expiry still matches the latest arming of its token.
func (l *Loop) current(ev event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gens[ev.token] != ev.gen {
		return false
	}
	delete(l.timers, ev.token)
	return true
}

func (l *Loop) dispatch(ctx context.Context, h Handler, ev event) {
	var err error
	switch ev.kind {
	case eventSnapshot:
		err = h.OnSnapshotChanged(ctx)
	case eventReady:
		err = h.OnAdapterReady(ctx)
	case eventTimer:
		if !l.current(ev) {
			return
		}
		err = h.OnTimer(ctx, ev.token)
	case eventBegin:
		ev.reply <- h.Begin(ctx, ev.req)
		return
	}
	if err != nil {
		l.logger.Error("event dispatch failed", "err", err)
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	for token, t := range l.timers {
		t.Stop()
		delete(l.timers, token)
	}
	for _, ev := range l.queue {
		if ev.reply != nil {
			ev.reply <- domain.ErrLoopStopped
		}
	}
	l.queue = nil
}

var _ ports.Scheduler = (*Loop)(nil)
