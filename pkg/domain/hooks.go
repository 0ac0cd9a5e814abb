package domain

import (
	"context"
	"time"
)

// StepOutcome describes what the executor did with a step.
type StepOutcome string

const (
	OutcomeExecuted  StepOutcome = "executed"
	OutcomeDiscarded StepOutcome = "discarded"
	OutcomeFailed    StepOutcome = "failed"
)

// RouteEvent is emitted after an inbound event has been turned into steps.
type RouteEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Stage     Stage     `json:"stage"`
	Steps     []string  `json:"steps"`
}

// StepEvent is emitted for every step the executor dequeues.
type StepEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	Step      string        `json:"step"`
	Stage     Stage         `json:"stage"`
	Outcome   StepOutcome   `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// EmergencyEvent is emitted when an emergency is raised or resolved.
type EmergencyEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Resolved  bool      `json:"resolved"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnEventRouted   func(context.Context, *RouteEvent)
	OnStepExecuted  func(context.Context, *StepEvent)
	OnStepDiscarded func(context.Context, *StepEvent)
	OnStepFailed    func(context.Context, *StepEvent)
	OnEmergency     func(context.Context, *EmergencyEvent)
}

// MergeHooks combines several hook sets; each callback fans out in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		h := h
		out.OnEventRouted = chain(out.OnEventRouted, h.OnEventRouted)
		out.OnStepExecuted = chain(out.OnStepExecuted, h.OnStepExecuted)
		out.OnStepDiscarded = chain(out.OnStepDiscarded, h.OnStepDiscarded)
		out.OnStepFailed = chain(out.OnStepFailed, h.OnStepFailed)
		out.OnEmergency = chain(out.OnEmergency, h.OnEmergency)
	}
	return out
}

func chain[T any](a, b func(context.Context, *T)) func(context.Context, *T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *T) {
		a(ctx, e)
		b(ctx, e)
	}
}
