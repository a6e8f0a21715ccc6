package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSend  EventType = "send"
	EventReply EventType = "reply"
)

// CommandEvent describes one request to the engine.
type CommandEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	RequestID string        `json:"request_id"`
	Command   string        `json:"command"`
	Verb      string        `json:"verb,omitempty"`
	Status    Status        `json:"status,omitempty"`
	Elapsed   time.Duration `json:"elapsed,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSend  func(context.Context, *CommandEvent)
	OnReply func(context.Context, *CommandEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSend:  chain(h.OnSend, other.OnSend),
		OnReply: chain(h.OnReply, other.OnReply),
	}
}

func chain(a, b func(context.Context, *CommandEvent)) func(context.Context, *CommandEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *CommandEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
