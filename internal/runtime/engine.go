package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/screen"
	"github.com/aretw0/ussdpilot/pkg/session"
	"github.com/aretw0/ussdpilot/pkg/steps"
	"github.com/google/uuid"
)

// Engine is the step executor. It owns the session cursor and decides, for each
// snapshot or timer expiry, which node to act on and where the cursor goes next.
//
// Engine is not safe for concurrent use: every call must come from the Loop
// (or an equivalent single-threaded driver). Each handler holds the session
// lock for its whole load, act and save cycle.
type Engine struct {
	sessions *session.Manager
	adapter  ports.SessionAdapter
	sched    ports.Scheduler
	matcher  *screen.Matcher

	timing            domain.Timing
	maxConfirmRetries int
	authPrompts       []string
	accessCode        string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTiming overrides the step and timer delays.
func WithTiming(t domain.Timing) EngineOption {
	return func(e *Engine) {
		e.timing = t
	}
}

// WithMaxConfirmRetries bounds failed attempts at the confirmation step.
func WithMaxConfirmRetries(n int) EngineOption {
	return func(e *Engine) {
		e.maxConfirmRetries = n
	}
}

// WithMatcher replaces the screen matcher.
func WithMatcher(m *screen.Matcher) EngineOption {
	return func(e *Engine) {
		e.matcher = m
	}
}

// WithAuthPrompts sets the phrases that mark a still-visible authentication screen.
func WithAuthPrompts(prompts ...string) EngineOption {
	return func(e *Engine) {
		e.authPrompts = prompts
	}
}

// WithAccessCode sets the code dialled to open the menu session.
func WithAccessCode(code string) EngineOption {
	return func(e *Engine) {
		e.accessCode = code
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator replaces the session ID source.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		e.newID = gen
	}
}

// WithClock replaces the wall clock used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine wires an executor to its store, adapter and scheduler.
func NewEngine(sessions *session.Manager, adapter ports.SessionAdapter, sched ports.Scheduler, opts ...EngineOption) *Engine {
	e := &Engine{
		sessions:          sessions,
		adapter:           adapter,
		sched:             sched,
		matcher:           screen.NewMatcher(),
		timing:            domain.DefaultTiming(),
		maxConfirmRetries: domain.DefaultMaxConfirmRetries,
		authPrompts:       domain.DefaultAuthPrompts,
		accessCode:        domain.DefaultAccessCode,
		logger:            logging.NewNop(),
		newID:             uuid.NewString,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin starts a session for req, superseding any session in flight.
// If the adapter cannot open the menu session the new state is rolled back to
// DONE and an error wrapping domain.ErrSessionOpenFailed is returned.
func (e *Engine) Begin(ctx context.Context, req domain.TransactionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return e.sessions.WithLock(ctx, func(ctx context.Context) error {
		return e.begin(ctx, req)
	})
}

func (e *Engine) begin(ctx context.Context, req domain.TransactionRequest) error {
	e.cancelAll()

	prev, err := e.sessions.Load(ctx)
	if err != nil {
		return err
	}

	state := domain.NewSessionState(e.newID(), req)
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}
	if prev.Active() {
		e.logger.Info("session superseded", "session", prev.ID, "step", prev.Step)
		e.emitFinish(ctx, prev, domain.FinishSuperseded)
	}

	e.sched.After(e.timing.Deadman, ports.TimerDeadman)

	if err := e.adapter.OpenSession(ctx, e.accessCode); err != nil {
		e.sched.Cancel(ports.TimerDeadman)
		state.Finish()
		if saveErr := e.sessions.Save(ctx, state); saveErr != nil {
			e.logger.Error("failed to roll back session", "session", state.ID, "err", saveErr)
		}
		e.emitFinish(ctx, state, domain.FinishOpenFailed)
		return fmt.Errorf("%w: %w", domain.ErrSessionOpenFailed, err)
	}

	e.logger.Info("session started", "session", state.ID, "mode", state.Mode)
	return nil
}

// OnSnapshotChanged handles a change notification from the adapter.
// The first notification of a session only selects the entry step and lets the
// surface settle; later ones evaluate the current step immediately.
func (e *Engine) OnSnapshotChanged(ctx context.Context) error {
	return e.sessions.WithLock(ctx, e.snapshotChanged)
}

func (e *Engine) snapshotChanged(ctx context.Context) error {
	state, err := e.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !state.Active() || state.Closing {
		return nil
	}

	root := e.matcher.SessionRoot(e.adapter.Snapshot(ctx))
	if root == nil {
		return nil
	}

	if state.Step == domain.StepNone {
		return e.enter(ctx, state)
	}

	e.sched.Cancel(ports.TimerStep)
	return e.evaluate(ctx, state, root)
}

func (e *Engine) enter(ctx context.Context, state *domain.SessionState) error {
	first := steps.First(state.Mode)
	if first == domain.StepNone {
		e.logger.Warn("no step chain for mode", "session", state.ID, "mode", state.Mode)
		return nil
	}
	state.Step = first
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}

	e.sched.After(e.timing.Deadman, ports.TimerDeadman)
	e.sched.After(e.timing.InitialDelay, ports.TimerStep)
	e.logger.Debug("session entered", "session", state.ID, "step", first)
	return nil
}

func (e *Engine) reevaluate(ctx context.Context) error {
	state, err := e.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !state.Active() || state.Closing || state.Step == domain.StepNone {
		return nil
	}
	root := e.matcher.SessionRoot(e.adapter.Snapshot(ctx))
	if root == nil {
		return nil
	}
	return e.evaluate(ctx, state, root)
}

// evaluate runs the current step once against root. A step whose target cannot
// be resolved leaves the state untouched and is retried on the next callback.
func (e *Engine) evaluate(ctx context.Context, state *domain.SessionState, root *domain.ScreenNode) error {
	def, ok := steps.Lookup(state.Mode, state.Step)
	if !ok {
		e.logger.Warn("unknown step", "session", state.ID, "mode", state.Mode, "step", state.Step)
		return nil
	}

	switch def.Action {
	case domain.ActionSendDigit:
		return e.sendDigitStep(ctx, state, def, root)
	case domain.ActionFillField:
		return e.fillFieldStep(ctx, state, def, root)
	case domain.ActionFinishWithAuth:
		return e.authStep(ctx, state, def, root)
	case domain.ActionConfirm:
		return e.confirmStep(ctx, state, def, root)
	}
	return nil
}

func (e *Engine) sendDigitStep(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) error {
	if !e.sendDigit(ctx, state, def, root) {
		e.emitStep(ctx, state, def, false)
		return nil
	}
	return e.advance(ctx, state, def, e.timing.StepDelay)
}

func (e *Engine) fillFieldStep(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) error {
	value := state.Request().Value(def.Field)
	if strings.TrimSpace(value) == "" {
		e.logger.Warn("step value is blank", "session", state.ID, "step", def.ID, "field", def.Field)
		e.emitStep(ctx, state, def, false)
		return nil
	}
	if !e.write(ctx, value, screen.HintedField(root, def.Keywords), screen.EditableTarget(root)) {
		e.emitStep(ctx, state, def, false)
		return nil
	}
	e.activateAction(ctx, state, def, root)
	return e.advance(ctx, state, def, e.timing.StepDelay)
}

func (e *Engine) authStep(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) error {
	code := state.AuthCode
	if strings.TrimSpace(code) == "" {
		e.logger.Warn("auth code is blank", "session", state.ID, "step", def.ID)
		e.emitStep(ctx, state, def, false)
		return nil
	}
	if !e.write(ctx, code, screen.HintedField(root, def.Keywords), screen.EditableTarget(root)) {
		e.emitStep(ctx, state, def, false)
		return nil
	}
	e.activateAction(ctx, state, def, root)

	if state.ConfirmAfterAuth {
		state.ConfirmRetryCount = 0
		return e.advance(ctx, state, def, e.timing.ConfirmDelay)
	}

	state.Closing = true
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}
	e.armAutoClose()
	e.emitStep(ctx, state, def, true)
	return nil
}

func (e *Engine) confirmStep(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) error {
	if state.ConfirmRetryCount >= e.maxConfirmRetries {
		e.logger.Debug("confirmation retries exhausted", "session", state.ID, "retries", state.ConfirmRetryCount)
		return nil
	}

	// The authentication screen may still be on top; typing now would land in the PIN box.
	if screen.ContainsAny(root, e.authPrompts) {
		e.sched.After(e.timing.StepDelay, ports.TimerStep)
		return nil
	}

	if e.sendDigit(ctx, state, def, root) {
		state.Closing = true
		if err := e.sessions.Save(ctx, state); err != nil {
			return err
		}
		e.armAutoClose()
		e.emitStep(ctx, state, def, true)
		return nil
	}

	state.ConfirmRetryCount++
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}
	if state.ConfirmRetryCount < e.maxConfirmRetries {
		e.sched.After(e.timing.StepDelay, ports.TimerStep)
	}
	e.emitStep(ctx, state, def, false)
	return nil
}

func (e *Engine) advance(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, delay time.Duration) error {
	state.Step = def.Next
	if err := e.sessions.Save(ctx, state); err != nil {
		return err
	}
	e.sched.After(delay, ports.TimerStep)
	e.logger.Debug("step advanced", "session", state.ID, "from", def.ID, "to", def.Next)
	e.emitStep(ctx, state, def, true)
	return nil
}

// sendDigit types a menu digit into the input field and submits it. Menus rendered
// as a list of entries are handled by activating the numbered entry instead.
func (e *Engine) sendDigit(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) bool {
	if target := screen.EditableTarget(root); target != nil && e.adapter.SetText(ctx, target, def.Digit) {
		e.activateAction(ctx, state, def, root)
		return true
	}
	if target := screen.DigitTarget(root, def.Digit); target != nil {
		return e.adapter.Activate(ctx, target)
	}
	return false
}

// write tries each candidate in order until one accepts the value.
func (e *Engine) write(ctx context.Context, value string, candidates ...*domain.ScreenNode) bool {
	tried := make(map[*domain.ScreenNode]bool, len(candidates))
	for _, n := range candidates {
		if n == nil || tried[n] {
			continue
		}
		tried[n] = true
		if e.adapter.SetText(ctx, n, value) {
			return true
		}
	}
	return false
}

// activateAction presses Send or OK after a write. Some pages submit on input
// alone, so the step advances whether or not a button took the press.
func (e *Engine) activateAction(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, root *domain.ScreenNode) {
	target := e.matcher.ActionTarget(root)
	if target != nil && e.adapter.Activate(ctx, target) {
		return
	}
	e.logger.Debug("advancing without action target", "session", state.ID, "step", def.ID, "found", target != nil)
}

func (e *Engine) emitStep(ctx context.Context, state *domain.SessionState, def domain.StepDefinition, advanced bool) {
	if e.hooks.OnStep == nil {
		return
	}
	e.hooks.OnStep(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventStep, SessionID: state.ID},
		Mode:      state.Mode,
		StepID:    def.ID,
		Next:      def.Next,
		Advanced:  advanced,
	})
}

func (e *Engine) emitFinish(ctx context.Context, state *domain.SessionState, reason domain.FinishReason) {
	if e.hooks.OnFinish == nil {
		return
	}
	e.hooks.OnFinish(ctx, &domain.FinishEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventFinish, SessionID: state.ID},
		Mode:      state.Mode,
		StepID:    state.Step,
		Reason:    reason,
	})
}
