// Package scheduler provides a deterministic ports.Scheduler for tests and simulations.
package scheduler

import (
	"sync"
	"time"

	"github.com/aretw0/ussdpilot/pkg/ports"
)

// Manual is a ports.Scheduler driven by an explicit virtual clock.
// Time stands still until Advance is called; expiries are delivered to the sink
// synchronously, in deadline order, ties broken by arming order.
//
// The sink may arm or cancel timers. Manual is safe for concurrent use.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers map[ports.TimerToken]*timer
	sink   func(ports.TimerToken)
}

type timer struct {
	deadline time.Duration
	seq      uint64
}

// NewManual returns a Manual that delivers expiries to sink.
func NewManual(sink func(ports.TimerToken)) *Manual {
	return &Manual{
		timers: make(map[ports.TimerToken]*timer),
		sink:   sink,
	}
}

// SetSink replaces the expiry callback. Useful when the sink is built after the scheduler.
func (m *Manual) SetSink(sink func(ports.TimerToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// After arms token to expire d from the current virtual time, superseding any earlier arming.
func (m *Manual) After(d time.Duration, token ports.TimerToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	m.timers[token] = &timer{deadline: m.now + d, seq: m.seq}
}

// Cancel disarms token. Cancelling an unarmed token is a no-op.
func (m *Manual) Cancel(token ports.TimerToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, token)
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Armed reports whether token is waiting to expire.
func (m *Manual) Armed(token ports.TimerToken) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[token]
	return ok
}

// Remaining returns the time until token expires, and false if it is not armed.
func (m *Manual) Remaining(token ports.TimerToken) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[token]
	if !ok {
		return 0, false
	}
	return t.deadline - m.now, true
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing every timer whose deadline falls
// within the window. Timers armed by the sink during Advance fire too if they
// fall within the same window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		token, next, ok := m.earliest(target)
		if !ok {
			m.now = target
			m.mu.Unlock()
			return
		}
		delete(m.timers, token)
		m.now = next.deadline
		sink := m.sink
		m.mu.Unlock()

		if sink != nil {
			sink(token)
		}
	}
}

// Fire expires token immediately if it is armed. Returns false otherwise.
func (m *Manual) Fire(token ports.TimerToken) bool {
	m.mu.Lock()
	if _, ok := m.timers[token]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.timers, token)
	sink := m.sink
	m.mu.Unlock()

	if sink != nil {
		sink(token)
	}
	return true
}

// RunUntilIdle fires timers in order until none are armed or limit expiries were delivered.
// It returns the number of expiries delivered.
func (m *Manual) RunUntilIdle(limit int) int {
	fired := 0
	for fired < limit {
		m.mu.Lock()
		token, next, ok := m.earliest(-1)
		if !ok {
			m.mu.Unlock()
			return fired
		}
		delete(m.timers, token)
		m.now = next.deadline
		sink := m.sink
		m.mu.Unlock()

		if sink != nil {
			sink(token)
		}
		fired++
	}
	return fired
}

// earliest returns the next timer due at or before target. A negative target means no bound.
func (m *Manual) earliest(target time.Duration) (ports.TimerToken, *timer, bool) {
	var (
		best      *timer
		bestToken ports.TimerToken
	)
	for token, t := range m.timers {
		if target >= 0 && t.deadline > target {
			continue
		}
		if best == nil || t.deadline < best.deadline || (t.deadline == best.deadline && t.seq < best.seq) {
			best, bestToken = t, token
		}
	}
	return bestToken, best, best != nil
}

var _ ports.Scheduler = (*Manual)(nil)
