package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/guardrail"
	"github.com/aretw0/carepath/pkg/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var executorTracer = otel.Tracer("carepath.internal.runtime.executor")

// Discard reasons reported through hooks.
const (
	ReasonEmergencyActive = "emergency_active"
	ReasonGuardrail       = "guardrail"
	ReasonNoHandler       = "no_handler"
)

type runFunc func(ctx context.Context, state *domain.JourneyState) (*domain.JourneyState, error)

// Executor drains a session's pending steps.
type Executor struct {
	registry  *registry.Registry
	guards    *guardrail.Table
	emergency *Emergency
	opts      options
}

// NewExecutor creates an Executor dispatching to the handlers in reg.
func NewExecutor(reg *registry.Registry, guards *guardrail.Table, opts ...Option) *Executor {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	if guards == nil {
		guards = guardrail.Default()
	}
	return &Executor{
		registry:  reg,
		guards:    guards,
		emergency: NewEmergency(opts...),
		opts:      buildOptions(opts),
	}
}

// Execute runs pending steps front-first until the queue is empty and returns the final state.
// Handlers may enqueue further steps; they run in the same drain. A failing step is
// recorded as a notification and does not stop the drain. If ctx is cancelled the
// remaining steps stay queued.
func (x *Executor) Execute(ctx context.Context, state *domain.JourneyState) *domain.JourneyState {
	current := state.Clone()
	for len(current.PendingSteps) > 0 {
		if err := ctx.Err(); err != nil {
			x.opts.logger.Warn("drain interrupted",
				"session_id", current.SessionID,
				"remaining", len(current.PendingSteps),
				"err", err,
			)
			break
		}
		step := current.PendingSteps[0]
		current.PendingSteps = current.PendingSteps[1:]
		current = x.runStep(ctx, current, step)
	}
	current.LastUpdated = x.opts.now()
	return current
}

func (x *Executor) runStep(ctx context.Context, state *domain.JourneyState, step domain.Step) *domain.JourneyState {
	ctx, span := executorTracer.Start(ctx, "step "+step.Name, trace.WithAttributes(
		attribute.String("carepath.session_id", state.SessionID),
		attribute.String("carepath.step", step.Name),
		attribute.String("carepath.stage", state.Stage.String()),
	))
	defer span.End()

	if state.Emergency.Active && !step.IsEmergency() {
		x.opts.logger.Info("step suppressed during emergency", "session_id", state.SessionID, "step", step.Name)
		x.discarded(ctx, state, step, ReasonEmergencyActive)
		span.SetAttributes(attribute.String("carepath.outcome", string(domain.OutcomeDiscarded)))
		return state
	}

	run, reason := x.resolve(state, step)
	if run == nil {
		span.SetAttributes(attribute.String("carepath.outcome", string(domain.OutcomeDiscarded)))
		x.discarded(ctx, state, step, reason)
		return state
	}

	start := time.Now()
	next, err := x.invoke(ctx, state, run)
	if err == nil {
		err = validateTransition(state, next, step)
	}
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "step failed")
		x.opts.logger.Error("step failed",
			"session_id", state.SessionID,
			"step", step.Name,
			"err", err,
		)
		state.Notify(domain.Notification{
			Type:      domain.NotificationError,
			Priority:  domain.PriorityMedium,
			Title:     "Action failed",
			Message:   "Something did not go through. Staff can help if needed.",
			Step:      step.Name,
			Timestamp: x.opts.now(),
		})
		if x.opts.hooks.OnStepFailed != nil {
			x.opts.hooks.OnStepFailed(ctx, x.stepEvent(state, step, domain.OutcomeFailed, "", elapsed, err))
		}
		return state
	}

	span.SetAttributes(attribute.String("carepath.outcome", string(domain.OutcomeExecuted)))
	x.opts.logger.Debug("step executed",
		"session_id", next.SessionID,
		"step", step.Name,
		"stage", next.Stage.String(),
		"duration", elapsed,
	)
	if x.opts.hooks.OnStepExecuted != nil {
		x.opts.hooks.OnStepExecuted(ctx, x.stepEvent(next, step, domain.OutcomeExecuted, "", elapsed, nil))
	}
	return next
}

// resolve picks the function behind a step, or returns the reason it cannot run.
func (x *Executor) resolve(state *domain.JourneyState, step domain.Step) (runFunc, string) {
	switch {
	case step.Name == domain.StepHandleEmergency:
		args := step.Args
		return func(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
			return x.emergency.Handle(ctx, s, args)
		}, ""
	case step.Name == domain.StepResolveEmergency:
		return x.emergency.Resolve, ""
	case step.IsParameterized():
		h, ok := x.registry.ParamHandler(step.Name)
		if !ok {
			x.opts.logger.Warn("no handler for step", "session_id", state.SessionID, "step", step.Name)
			return nil, ReasonNoHandler
		}
		args := step.Args
		return func(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
			return h(ctx, s, args)
		}, ""
	}

	if !x.guards.IsAllowed(step, state) {
		x.opts.logger.Warn("guardrail rejected step",
			"session_id", state.SessionID,
			"step", step.Name,
			"stage", state.Stage.String(),
		)
		return nil, ReasonGuardrail
	}
	h, ok := x.registry.Handler(step.Name)
	if !ok {
		x.opts.logger.Warn("no handler for step", "session_id", state.SessionID, "step", step.Name)
		return nil, ReasonNoHandler
	}
	return runFunc(h), ""
}

// invoke calls run on a private copy of state, bounded by the handler timeout.
func (x *Executor) invoke(ctx context.Context, state *domain.JourneyState, run runFunc) (*domain.JourneyState, error) {
	input := state.Clone()
	if x.opts.timeout <= 0 {
		return safeCall(ctx, input, run)
	}

	ctx, cancel := context.WithTimeout(ctx, x.opts.timeout)
	defer cancel()

	type result struct {
		state *domain.JourneyState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		s, err := safeCall(ctx, input, run)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		return r.state, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", domain.ErrHandlerTimeout, x.opts.timeout)
		}
		return nil, ctx.Err()
	}
}

func safeCall(ctx context.Context, state *domain.JourneyState, run runFunc) (out *domain.JourneyState, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("handler panic: %v", r)
		}
	}()
	out, err = run(ctx, state)
	if err == nil && out == nil {
		err = errors.New("handler returned no state")
	}
	return out, err
}

// validateTransition rejects handler results that break journey invariants.
func validateTransition(prev, next *domain.JourneyState, step domain.Step) error {
	if next.SessionID != prev.SessionID {
		return fmt.Errorf("handler changed session id from %q to %q", prev.SessionID, next.SessionID)
	}
	if !next.Stage.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrUnknownStage, int(next.Stage))
	}
	if len(next.Notifications) < len(prev.Notifications) || len(next.EventHistory) < len(prev.EventHistory) {
		return errors.New("handler truncated append-only history")
	}
	if step.IsEmergency() {
		return nil
	}
	if emergencyChanged(prev.Emergency, next.Emergency) {
		return fmt.Errorf("step %s changed emergency state: %w", step.Name, domain.ErrEmergencyActive)
	}
	if next.Stage.Before(prev.Stage) {
		return fmt.Errorf("step %s moved %s to %s: %w", step.Name, prev.Stage, next.Stage, domain.ErrStageRegression)
	}
	return nil
}

func emergencyChanged(a, b domain.EmergencyStatus) bool {
	return a.Active != b.Active || a.Type != b.Type || a.PreEmergencyStage != b.PreEmergencyStage
}

func (x *Executor) discarded(ctx context.Context, state *domain.JourneyState, step domain.Step, reason string) {
	if x.opts.hooks.OnStepDiscarded != nil {
		x.opts.hooks.OnStepDiscarded(ctx, x.stepEvent(state, step, domain.OutcomeDiscarded, reason, 0, nil))
	}
}

func (x *Executor) stepEvent(state *domain.JourneyState, step domain.Step, outcome domain.StepOutcome, reason string, d time.Duration, err error) *domain.StepEvent {
	return &domain.StepEvent{
		Timestamp: x.opts.now(),
		SessionID: state.SessionID,
		Step:      step.Name,
		Stage:     state.Stage,
		Outcome:   outcome,
		Reason:    reason,
		Duration:  d,
		Err:       err,
	}
}
