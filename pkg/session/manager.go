package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// lockKey names the single session slot for the distributed locker.
const lockKey = "session"

// DefaultLockTTL bounds how long a crashed holder can block the slot.
const DefaultLockTTL = 10 * time.Second

// heldKey marks a context whose caller already holds a manager's lock.
type heldKey struct{}

// Manager orchestrates session access, ensuring safe concurrent operations.
type Manager struct {
	store ports.SessionStore

	mu sync.Mutex

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load retrieves the session, or nil when none has been stored.
func (m *Manager) Load(ctx context.Context) (*domain.SessionState, error) {
	var state *domain.SessionState
	err := m.WithLock(ctx, func(ctx context.Context) error {
		var err error
		state, err = m.load(ctx)
		return err
	})
	return state, err
}

// Save persists the session state wholesale.
func (m *Manager) Save(ctx context.Context, state *domain.SessionState) error {
	return m.WithLock(ctx, func(ctx context.Context) error {
		return m.save(ctx, state)
	})
}

// Clear removes the session from the store.
func (m *Manager) Clear(ctx context.Context) error {
	return m.WithLock(ctx, func(ctx context.Context) error {
		return m.store.Clear(ctx)
	})
}

// Update loads the state, applies fn and saves the result if fn reports a change.
// fn receives nil when no session exists.
func (m *Manager) Update(ctx context.Context, fn func(*domain.SessionState) (*domain.SessionState, bool)) (*domain.SessionState, error) {
	var result *domain.SessionState
	err := m.WithLock(ctx, func(ctx context.Context) error {
		current, err := m.load(ctx)
		if err != nil {
			return err
		}
		next, changed := fn(current)
		result = next
		if !changed || next == nil {
			return nil
		}
		return m.save(ctx, next)
	})
	return result, err
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the session lock.
// The context handed to fn carries the lock, so Load, Save, Clear, Update and
// nested WithLock calls made with it run without acquiring it again.
func (m *Manager) WithLock(ctx context.Context, fn func(context.Context) error) error {
	if held, _ := ctx.Value(heldKey{}).(*Manager); held == m {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, lockKey, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"err", err,
				)
			}
		}()
	}

	return fn(context.WithValue(ctx, heldKey{}, m))
}

func (m *Manager) load(ctx context.Context) (*domain.SessionState, error) {
	state, err := m.store.Load(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return state, nil
}

func (m *Manager) save(ctx context.Context, state *domain.SessionState) error {
	state.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
