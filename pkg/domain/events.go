package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventActionStart       EventType = "action_start"
	EventActionEnd         EventType = "action_end"
	EventRenderStart       EventType = "render_start"
	EventRenderEnd         EventType = "render_end"
	EventInclude           EventType = "include"
	EventPreferencesStored EventType = "preferences_stored"
	EventValidationFailed  EventType = "validation_failed"
)

// Phase names the kind of invocation a portlet is serving.
type Phase string

const (
	PhaseAction Phase = "action"
	PhaseRender Phase = "render"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// InvocationEvent represents the start or end of one processAction/render call.
type InvocationEvent struct {
	EventBase
	Portlet  string        `json:"portlet"`
	WindowID string        `json:"window_id"`
	Phase    Phase         `json:"phase"`
	Mode     PortletMode   `json:"mode"`
	State    WindowState   `json:"state"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// IncludeEvent represents a dispatcher include.
type IncludeEvent struct {
	EventBase
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// PreferencesEvent represents a commit attempt of a preference set.
type PreferencesEvent struct {
	EventBase
	Key        string   `json:"key"`
	Accepted   bool     `json:"accepted"`
	FailedKeys []string `json:"failed_keys,omitempty"`
}

// LifecycleHooks defines callbacks for observability. Nil hooks are skipped.
type LifecycleHooks struct {
	OnInvocationStart func(context.Context, *InvocationEvent)
	OnInvocationEnd   func(context.Context, *InvocationEvent)
	OnInclude         func(context.Context, *IncludeEvent)
	OnPreferences     func(context.Context, *PreferencesEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnInvocationStart: chain(h.OnInvocationStart, other.OnInvocationStart),
		OnInvocationEnd:   chain(h.OnInvocationEnd, other.OnInvocationEnd),
		OnInclude:         chain(h.OnInclude, other.OnInclude),
		OnPreferences:     chain(h.OnPreferences, other.OnPreferences),
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
