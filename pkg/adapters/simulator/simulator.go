package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/aretw0/ussdpilot/pkg/ports"
)

// DialerOwnerID is the owner reported for the menu dialog.
const DialerOwnerID = "com.android.phone"

// ErrUnknownAccessCode is returned when OpenSession dials a code the simulator does not serve.
var ErrUnknownAccessCode = errors.New("unknown access code")

type role int

const (
	roleNone role = iota
	roleInput
	roleSend
	roleCancel
	roleOK
	roleStale
	roleDistractor
)

// Entry is one line of the transcript.
type Entry struct {
	Page   string `json:"page"`
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// Simulator is an in-memory scripted menu implementing ports.SessionAdapter.
// Each Snapshot renders a fresh element tree; SetText and Activate only accept
// nodes from the most recent render.
type Simulator struct {
	mu sync.Mutex

	pages      map[string]*Page
	accessCode string
	pin        string
	confirm    bool
	distractor string
	staleAuth  int
	listener   ports.SessionListener
	logger     *slog.Logger

	open    bool
	page    string
	input   string
	values  map[string]string
	result  string
	stale   int
	roles   map[*domain.ScreenNode]role
	entries []Entry

	dismissals  int
	strayWrites int
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPages replaces the menu tree.
func WithPages(pages map[string]*Page) Option {
	return func(s *Simulator) { s.pages = pages }
}

// WithAccessCode sets the code OpenSession accepts.
func WithAccessCode(code string) Option {
	return func(s *Simulator) { s.accessCode = code }
}

// WithPIN sets the authentication code the menu expects.
func WithPIN(pin string) Option {
	return func(s *Simulator) { s.pin = pin }
}

// WithConfirmation inserts the "1. Confirm" page after authentication. It is off by default.
func WithConfirmation(enabled bool) Option {
	return func(s *Simulator) { s.confirm = enabled }
}

// WithDistractor renders an extra window owned by ownerID on top of the dialog.
// It carries the same vocabulary as the menu and must never be touched.
func WithDistractor(ownerID string) Option {
	return func(s *Simulator) { s.distractor = ownerID }
}

// WithStaleAuthRenders keeps the authentication page on screen for n more
// renders after the code was submitted.
func WithStaleAuthRenders(n int) Option {
	return func(s *Simulator) { s.staleAuth = n }
}

// WithListener registers the callback target for screen changes.
func WithListener(l ports.SessionListener) Option {
	return func(s *Simulator) { s.listener = l }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) { s.logger = logger }
}

// New creates a Simulator serving the default menu on domain.DefaultAccessCode.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		pages:      DefaultPages(),
		accessCode: domain.DefaultAccessCode,
		pin:        "1234",
		logger:     slog.New(slog.DiscardHandler),
		values:     make(map[string]string),
		roles:      make(map[*domain.ScreenNode]role),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener registers the callback target after construction.
func (s *Simulator) SetListener(l ports.SessionListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// Ready reports the adapter as (re)connected to the listener.
func (s *Simulator) Ready() {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		l.AdapterReady()
	}
}

// OpenSession implements ports.SessionAdapter.
func (s *Simulator) OpenSession(ctx context.Context, accessCode string) error {
	s.mu.Lock()
	if accessCode != s.accessCode {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownAccessCode, accessCode)
	}
	s.open = true
	s.page = PageMain
	s.input = ""
	s.result = ""
	s.stale = 0
	s.values = make(map[string]string)
	s.record(Entry{Page: PageMain, Action: "open", Value: accessCode})
	s.mu.Unlock()

	s.logger.Debug("simulator session opened", "access_code", accessCode)
	s.notify()
	return nil
}

// Snapshot implements ports.SessionAdapter.
func (s *Simulator) Snapshot(ctx context.Context) *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles = make(map[*domain.ScreenNode]role)
	var windows []*domain.ScreenNode

	if s.open {
		if s.stale > 0 {
			s.stale--
			windows = append(windows, s.renderPage(s.pages[PagePIN], roleStale))
		} else {
			windows = append(windows, s.render())
		}
	}
	if s.distractor != "" {
		windows = append(windows, s.renderDistractor())
	}
	if len(windows) == 0 {
		return nil
	}
	return &domain.Snapshot{Windows: windows}
}

// SetText implements ports.SessionAdapter.
func (s *Simulator) SetText(ctx context.Context, node *domain.ScreenNode, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.roles[node] {
	case roleInput:
		s.input = value
		s.record(Entry{Page: s.page, Action: "type", Value: maskIf(s.pages[s.page], value)})
		return true
	case roleStale, roleDistractor:
		s.strayWrites++
		s.record(Entry{Page: s.page, Action: "stray_type"})
		return true
	}
	return false
}

// Activate implements ports.SessionAdapter.
func (s *Simulator) Activate(ctx context.Context, node *domain.ScreenNode) bool {
	s.mu.Lock()
	r := s.roles[node]
	switch r {
	case roleSend:
		s.submit()
	case roleCancel, roleOK:
		s.record(Entry{Page: s.page, Action: "close"})
		s.close()
	case roleStale, roleDistractor:
		s.strayWrites++
		s.record(Entry{Page: s.page, Action: "stray_activate"})
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if r == roleSend || r == roleCancel || r == roleOK {
		s.notify()
	}
	return true
}

// Dismiss implements ports.SessionAdapter.
func (s *Simulator) Dismiss(ctx context.Context) {
	s.mu.Lock()
	s.dismissals++
	wasOpen := s.open
	if wasOpen {
		s.record(Entry{Page: s.page, Action: "dismiss"})
		s.close()
	}
	s.mu.Unlock()

	if wasOpen {
		s.notify()
	}
}

// Open reports whether the menu dialog is on screen.
func (s *Simulator) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Page returns the id of the page on screen, or "" when closed.
func (s *Simulator) Page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ""
	}
	return s.page
}

// Result returns the text of the last result page reached.
func (s *Simulator) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Values returns a copy of the inputs collected by the current or last session.
func (s *Simulator) Values() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Transcript returns a copy of everything that happened so far.
func (s *Simulator) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Dismissals counts Dismiss calls.
func (s *Simulator) Dismissals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dismissals
}

// StrayWrites counts interactions with stale or foreign nodes.
func (s *Simulator) StrayWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strayWrites
}

// submit applies the pending input to the current page. Caller holds mu.
func (s *Simulator) submit() {
	page := s.pages[s.page]
	in := strings.TrimSpace(s.input)
	s.input = ""
	s.record(Entry{Page: s.page, Action: "send", Value: maskIf(page, in)})

	if page == nil || s.page == PageResult {
		return
	}

	if page.Field != "" {
		if in == "" {
			return
		}
		s.values[page.Field] = in
		if page.ID == PagePIN {
			s.afterAuth(in)
			return
		}
		s.goTo(page.Next[anyInput])
		return
	}

	next, ok := page.Next[in]
	if !ok {
		s.finishWith("Invalid input")
		return
	}
	if page.ID == PageConfirm {
		if in == "1" {
			s.finishWith(successText(s.values))
		} else {
			s.finishWith("Transaction cancelled.")
		}
		return
	}
	s.goTo(next)
}

func (s *Simulator) afterAuth(pin string) {
	if pin != s.pin {
		s.finishWith("Wrong PIN. Please try again.")
		return
	}
	if !s.confirm {
		s.finishWith(successText(s.values))
		return
	}
	s.stale = s.staleAuth
	s.goTo(PageConfirm)
}

func (s *Simulator) goTo(id string) {
	if _, ok := s.pages[id]; !ok && id != PageResult {
		s.finishWith("Invalid input")
		return
	}
	s.page = id
}

func (s *Simulator) finishWith(text string) {
	s.page = PageResult
	s.result = text
	s.stale = 0
	s.record(Entry{Page: PageResult, Action: "result", Value: text})
}

func (s *Simulator) close() {
	s.open = false
	s.input = ""
	s.stale = 0
}

func (s *Simulator) record(e Entry) {
	s.entries = append(s.entries, e)
}

func (s *Simulator) notify() {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l != nil {
		l.SnapshotChanged()
	}
}

func maskIf(page *Page, in string) string {
	if page != nil && page.ID == PagePIN && in != "" {
		return "****"
	}
	return in
}
