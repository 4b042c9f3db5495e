package ussdpilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/screen"
	"github.com/aretw0/ussdpilot/pkg/session"
	"github.com/aretw0/ussdpilot/pkg/trigger"
)

// Version is stamped at build time.
var Version = "dev"

// StaticPolicy is a fixed ports.PolicySource.
type StaticPolicy domain.Policy

// Policy implements ports.PolicySource.
func (p StaticPolicy) Policy(ctx context.Context) (domain.Policy, error) {
	out := domain.Policy(p)
	out.AllowedSenders = append([]string(nil), p.AllowedSenders...)
	return out, nil
}

// listenerSetter is implemented by adapters that accept their callback target late.
type listenerSetter interface {
	SetListener(ports.SessionListener)
}

// Pilot is the high-level entry point. It wires the trigger interpreter, the
// session store and the step engine behind a single event loop.
type Pilot struct {
	adapter           ports.SessionAdapter
	store             ports.SessionStore
	locker            ports.DistributedLocker
	policy            ports.PolicySource
	timing            domain.Timing
	maxConfirmRetries int
	markers           []string
	ownerID           string
	accessCode        string
	countryCode       string
	hooks             domain.LifecycleHooks
	logger            *slog.Logger

	interpreter *trigger.Interpreter
	sessions    *session.Manager
	engine      *runtime.Engine
	loop        *runtime.Loop
}

// Option defines a functional option for configuring the Pilot.
type Option func(*Pilot)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(p *Pilot) { p.store = store }
}

// WithLocker shares the store safely with other processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(p *Pilot) { p.locker = locker }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pilot) { p.logger = logger }
}

// WithPolicy sets where the allow-list and auth code come from.
// Without it every message is rejected as disabled.
func WithPolicy(policy ports.PolicySource) Option {
	return func(p *Pilot) { p.policy = policy }
}

// WithTiming overrides the step and timeout delays.
func WithTiming(t domain.Timing) Option {
	return func(p *Pilot) { p.timing = t }
}

// WithMaxConfirmRetries bounds failed confirmation attempts.
func WithMaxConfirmRetries(n int) Option {
	return func(p *Pilot) { p.maxConfirmRetries = n }
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Pilot) { p.hooks = p.hooks.Merge(hooks) }
}

// WithMarkers replaces the vocabulary that identifies a menu window.
func WithMarkers(markers ...string) Option {
	return func(p *Pilot) { p.markers = markers }
}

// WithOwnerID names the automation's own surface, which is never acted on.
func WithOwnerID(id string) Option {
	return func(p *Pilot) { p.ownerID = id }
}

// WithAccessCode sets the code dialed to open the menu.
func WithAccessCode(code string) Option {
	return func(p *Pilot) { p.accessCode = code }
}

// WithCountryCode sets the dialing prefix stripped from senders.
func WithCountryCode(cc string) Option {
	return func(p *Pilot) { p.countryCode = cc }
}

// New initializes a Pilot driving adapter. If the adapter accepts a listener
// (SetListener), the Pilot registers itself.
func New(adapter ports.SessionAdapter, opts ...Option) (*Pilot, error) {
	if adapter == nil {
		return nil, errors.New("session adapter is required")
	}

	p := &Pilot{
		adapter:           adapter,
		policy:            StaticPolicy{},
		timing:            domain.DefaultTiming(),
		maxConfirmRetries: domain.DefaultMaxConfirmRetries,
		ownerID:           domain.DefaultOwnerID,
		accessCode:        domain.DefaultAccessCode,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.store == nil {
		p.store = memory.NewStore()
	}
	if p.maxConfirmRetries < 0 {
		return nil, fmt.Errorf("max confirm retries must not be negative, got %d", p.maxConfirmRetries)
	}

	p.interpreter = trigger.New()
	if p.countryCode != "" {
		p.interpreter.CountryCode = p.countryCode
	}

	sessionOpts := []session.Option{session.WithLogger(p.logger)}
	if p.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(p.locker))
	}
	p.sessions = session.NewManager(p.store, sessionOpts...)

	p.loop = runtime.NewLoop(runtime.WithLoopLogger(p.logger))
	p.engine = runtime.NewEngine(p.sessions, adapter, p.loop,
		runtime.WithTiming(p.timing),
		runtime.WithMaxConfirmRetries(p.maxConfirmRetries),
		runtime.WithMatcher(screen.NewMatcher(
			screen.WithOwnerID(p.ownerID),
			screen.WithMarkers(p.markers...),
		)),
		runtime.WithAccessCode(p.accessCode),
		runtime.WithLifecycleHooks(p.hooks),
		runtime.WithLogger(p.logger),
	)

	if ls, ok := adapter.(listenerSetter); ok {
		ls.SetListener(p)
	}
	return p, nil
}

// Run dispatches adapter notifications, timers and requests until ctx is cancelled.
func (p *Pilot) Run(ctx context.Context) error {
	return p.loop.Run(ctx, p.engine)
}

// SubmitMessage interprets an inbound message and, when it is accepted, starts
// the transaction. Rejected messages return nil, nil: they are logged and
// reported through OnTrigger only.
func (p *Pilot) SubmitMessage(ctx context.Context, msg trigger.Message) (*domain.TransactionRequest, error) {
	policy, err := p.policy.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	req, err := p.interpreter.Interpret(policy, msg)
	if err != nil {
		var rej *trigger.RejectError
		if !errors.As(err, &rej) {
			return nil, err
		}
		p.logger.Debug("message rejected", "reason", rej.Reason, "detail", rej.Detail)
		p.emitTrigger(ctx, false, string(rej.Reason), "")
		return nil, nil
	}

	p.emitTrigger(ctx, true, "", req.Mode)
	if err := p.StartTransaction(ctx, req); err != nil {
		return &req, err
	}
	return &req, nil
}

// StartTransaction starts a session for req, superseding any session in flight.
// Run must be running for the call to complete.
func (p *Pilot) StartTransaction(ctx context.Context, req domain.TransactionRequest) error {
	return p.loop.Begin(ctx, req)
}

// SnapshotChanged implements ports.SessionListener.
func (p *Pilot) SnapshotChanged() {
	p.loop.SnapshotChanged()
}

// AdapterReady implements ports.SessionListener.
func (p *Pilot) AdapterReady() {
	p.loop.AdapterReady()
}

// Session returns the persisted session with the auth code masked, or
// domain.ErrSessionNotFound.
func (p *Pilot) Session(ctx context.Context) (*domain.SessionState, error) {
	state, err := p.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, domain.ErrSessionNotFound
	}
	return state.Redacted(), nil
}

func (p *Pilot) emitTrigger(ctx context.Context, accepted bool, reason string, mode domain.Mode) {
	if p.hooks.OnTrigger == nil {
		return
	}
	p.hooks.OnTrigger(ctx, &domain.TriggerEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTrigger},
		Accepted:  accepted,
		Reason:    reason,
		Mode:      mode,
	})
}

var _ ports.SessionListener = (*Pilot)(nil)
