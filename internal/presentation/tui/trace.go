package tui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/muesli/termenv"
)

// Trace prints lifecycle events as a coloured, one-line-per-event log.
type Trace struct {
	mu  sync.Mutex
	w   io.Writer
	out *termenv.Output
}

// NewTrace creates a Trace writing to w. Colours are dropped when w is not a terminal.
func NewTrace(w io.Writer) *Trace {
	return &Trace{w: w, out: termenv.NewOutput(w)}
}

// Hooks returns lifecycle hooks that print to the trace.
func (t *Trace) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTrigger: func(_ context.Context, e *domain.TriggerEvent) {
			if e.Accepted {
				t.line("#60a5fa", "trigger", fmt.Sprintf("accepted %s", e.Mode))
				return
			}
			t.line("#f87171", "trigger", "rejected: "+e.Reason)
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			if e.Advanced {
				t.line("#4ade80", "step", fmt.Sprintf("%s -> %s", e.StepID, e.Next))
				return
			}
			t.line("#facc15", "step", fmt.Sprintf("%s (no target)", e.StepID))
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			color := "#a78bfa"
			if e.Reason != domain.FinishCompleted {
				color = "#f87171"
			}
			t.line(color, "finish", fmt.Sprintf("%s at %s", e.Reason, e.StepID))
		},
	}
}

// Note prints a neutral line.
func (t *Trace) Note(format string, args ...any) {
	t.line("#9ca3af", "note", fmt.Sprintf(format, args...))
}

func (t *Trace) line(color, kind, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	label := t.out.String(fmt.Sprintf("%-7s", kind)).Foreground(t.out.Color(color)).Bold()
	fmt.Fprintf(t.w, "%s %s\n", label, text)
}
