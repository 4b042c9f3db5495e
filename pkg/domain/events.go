package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTrigger EventType = "trigger"
	EventStep    EventType = "step"
	EventFinish  EventType = "finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TriggerEvent reports the outcome of interpreting an inbound message.
type TriggerEvent struct {
	EventBase
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Mode     Mode   `json:"mode,omitempty"`
}

// StepEvent reports one evaluation of the current step.
type StepEvent struct {
	EventBase
	Mode     Mode   `json:"mode"`
	StepID   StepID `json:"step_id"`
	Next     StepID `json:"next,omitempty"`
	Advanced bool   `json:"advanced"`
}

// FinishEvent reports that a session reached the terminal state.
type FinishEvent struct {
	EventBase
	Mode   Mode         `json:"mode"`
	StepID StepID       `json:"step_id"`
	Reason FinishReason `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTrigger func(context.Context, *TriggerEvent)
	OnStep    func(context.Context, *StepEvent)
	OnFinish  func(context.Context, *FinishEvent)
}

// Merge combines two hook sets, calling h before other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTrigger: chain(h.OnTrigger, other.OnTrigger),
		OnStep:    chain(h.OnStep, other.OnStep),
		OnFinish:  chain(h.OnFinish, other.OnFinish),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
