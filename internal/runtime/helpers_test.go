package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/ussdpilot/internal/runtime"
	"github.com/aretw0/ussdpilot/pkg/adapters/memory"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
	"github.com/aretw0/ussdpilot/pkg/scheduler"
	"github.com/aretw0/ussdpilot/pkg/session"
	"github.com/stretchr/testify/require"
)

type write struct {
	node  *domain.ScreenNode
	value string
}

// fakeAdapter records every action the engine takes against the screen.
type fakeAdapter struct {
	mu         sync.Mutex
	snapshot   *domain.Snapshot
	openErr    error
	opened     []string
	writes     []write
	activated  []*domain.ScreenNode
	dismissals int
}

func (a *fakeAdapter) OpenSession(_ context.Context, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opened = append(a.opened, code)
	return a.openErr
}

func (a *fakeAdapter) Snapshot(context.Context) *domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

func (a *fakeAdapter) SetText(_ context.Context, n *domain.ScreenNode, value string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !n.IsEditable && !n.IsFocusable {
		return false
	}
	a.writes = append(a.writes, write{node: n, value: value})
	return true
}

func (a *fakeAdapter) Activate(_ context.Context, n *domain.ScreenNode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !n.IsClickable {
		return false
	}
	a.activated = append(a.activated, n)
	return true
}

func (a *fakeAdapter) Dismiss(context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dismissals++
}

func (a *fakeAdapter) show(windows ...*domain.ScreenNode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot = &domain.Snapshot{Windows: windows}
}

func (a *fakeAdapter) values() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.writes))
	for _, w := range a.writes {
		out = append(out, w.value)
	}
	return out
}

func (a *fakeAdapter) dismissed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dismissals
}

func (a *fakeAdapter) actions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.writes) + len(a.activated) + a.dismissals
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	adapter  *fakeAdapter
	sched    *scheduler.Manual
	engine   *runtime.Engine
	steps    []*domain.StepEvent
	finishes []*domain.FinishEvent
}

func newHarness(t *testing.T, opts ...runtime.EngineOption) *harness {
	t.Helper()
	return newHarnessWith(t, nil, opts...)
}

// newHarnessWith lets a test configure the session manager, e.g. with a locker.
func newHarnessWith(t *testing.T, sessionOpts []session.Option, opts ...runtime.EngineOption) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		ctx:     context.Background(),
		store:   memory.NewStore(),
		adapter: &fakeAdapter{},
	}
	h.sched = scheduler.NewManual(func(tok ports.TimerToken) {
		require.NoError(t, h.engine.OnTimer(h.ctx, tok))
	})

	seq := 0
	base := []runtime.EngineOption{
		runtime.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("session-%d", seq)
		}),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{
			OnStep:   func(_ context.Context, e *domain.StepEvent) { h.steps = append(h.steps, e) },
			OnFinish: func(_ context.Context, e *domain.FinishEvent) { h.finishes = append(h.finishes, e) },
		}),
	}
	h.engine = runtime.NewEngine(session.NewManager(h.store, sessionOpts...), h.adapter, h.sched, append(base, opts...)...)
	return h
}

func (h *harness) state() *domain.SessionState {
	h.t.Helper()
	s, err := h.store.Load(h.ctx)
	require.NoError(h.t, err)
	return s
}

// seed stores a session as if a previous process had left it mid-flight.
func (h *harness) seed(req domain.TransactionRequest, step domain.StepID) *domain.SessionState {
	h.t.Helper()
	s := domain.NewSessionState("seeded", req)
	s.Step = step
	require.NoError(h.t, h.store.Save(h.ctx, s))
	return s
}

func (h *harness) changed() {
	h.t.Helper()
	require.NoError(h.t, h.engine.OnSnapshotChanged(h.ctx))
}

var (
	sendMoney = domain.TransactionRequest{
		Mode: domain.ModeSendMoney, Phone: "0712345678", Amount: "500", AuthCode: "4321",
	}
	paybill = domain.TransactionRequest{
		Mode: domain.ModePaybill, Business: "888880", Account: "ACC-77", Amount: "1500", AuthCode: "4321",
	}
)

func text(s string) *domain.ScreenNode {
	return &domain.ScreenNode{Text: s, Kind: "TextView"}
}

func button(label string) *domain.ScreenNode {
	return &domain.ScreenNode{Text: label, Kind: "Button", IsClickable: true, IsFocusable: true}
}

func input(hint string) *domain.ScreenNode {
	return &domain.ScreenNode{Kind: "EditText", Hint: hint, IsEditable: true, IsFocusable: true}
}

func dialog(children ...*domain.ScreenNode) *domain.ScreenNode {
	return &domain.ScreenNode{OwnerID: "com.android.phone", Kind: "FrameLayout", Children: children}
}

// promptScreen is a menu page with one input field.
func promptScreen(prompt string) (*domain.ScreenNode, *domain.ScreenNode, *domain.ScreenNode) {
	field := input("")
	field.IsFocused = true
	send := button("SEND")
	return dialog(text(prompt), field, button("CANCEL"), send), field, send
}

// waitScreen has markers but nothing to act on.
func waitScreen() *domain.ScreenNode {
	return dialog(text("Processing. To continue please wait"))
}

func sessionManager(h *harness) *session.Manager {
	return session.NewManager(h.store)
}
