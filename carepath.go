package carepath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/internal/runtime"
	"github.com/aretw0/carepath/pkg/adapters/memory"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/guardrail"
	"github.com/aretw0/carepath/pkg/handlers"
	"github.com/aretw0/carepath/pkg/intent"
	"github.com/aretw0/carepath/pkg/location"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/aretw0/carepath/pkg/registry"
	"github.com/aretw0/carepath/pkg/session"
	"github.com/google/uuid"
)

// Engine is the session API over the journey runtime.
type Engine struct {
	store    ports.SessionStore
	archive  ports.SessionStore
	sessions *session.Manager

	router   *runtime.Router
	executor *runtime.Executor
	detector *runtime.Detector

	classifier ports.IntentClassifier
	resolver   ports.LocationResolver
	notifier   ports.Notifier
	guards     *guardrail.Table
	listeners  []StateListener
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	newID      func() string

	sessionOpts   []session.Option
	runtimeOpts   []runtime.Option
	handlerOpts   []handlers.Option
	extraHandlers []func(*registry.Registry)
	extraGuards   []namedGuard
}

// New creates an Engine. Without options it keeps sessions in memory, classifies
// messages by keyword and resolves locations against the default venue.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.classifier == nil {
		e.classifier = intent.NewKeywordClassifier()
	}
	if e.resolver == nil {
		e.resolver = location.NewResolver(location.DefaultVenue())
	}

	e.sessions = session.NewManager(e.store, append([]session.Option{session.WithLogger(e.logger)}, e.sessionOpts...)...)

	reg := registry.NewRegistry()
	handlers.New(append([]handlers.Option{handlers.WithLogger(e.logger)}, e.handlerOpts...)...).Register(reg)
	for _, register := range e.extraHandlers {
		register(reg)
	}

	rtOpts := append([]runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithClassifier(e.classifier),
		runtime.WithLocationResolver(e.resolver),
	}, e.runtimeOpts...)

	if e.guards == nil {
		e.guards = guardrail.Default()
	}
	for _, g := range e.extraGuards {
		e.guards.Register(g.step, g.guard)
	}

	e.router = runtime.NewRouter(nil, rtOpts...)
	e.detector = e.router.Detector()
	e.executor = runtime.NewExecutor(reg, e.guards, rtOpts...)
	return e
}

// InitializeSession creates a session in the Arrival stage and returns its ID.
// When the patient carries an initial area it is processed as the first event.
func (e *Engine) InitializeSession(ctx context.Context, patient domain.PatientInfo) (string, error) {
	id := e.newID()
	state := domain.NewJourneyState(id, patient)
	if patient.InitialArea != "" {
		state = e.process(ctx, state, domain.NewLocationUpdate(domain.LocationSignal{Area: patient.InitialArea}))
	}

	if err := e.sessions.Create(ctx, state); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	e.logger.Info("session initialized",
		"session_id", id,
		"patient_id", patient.PatientID,
		"stage", state.Stage.String(),
	)

	e.deliver(ctx, id, state.Notifications)
	e.publish(domain.Diff(nil, state))
	return id, nil
}

// HandleEvent routes the event, drains the resulting steps and returns the new state.
// Events for the same session are applied one at a time.
func (e *Engine) HandleEvent(ctx context.Context, sessionID string, ev domain.Event) (*domain.JourneyState, error) {
	var fresh []domain.Notification
	var diff *domain.StateDiff

	state, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.JourneyState) (*domain.JourneyState, error) {
		next := e.process(ctx, current, ev)
		fresh = newNotifications(current, next)
		diff = domain.Diff(current, next)
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to handle event for session %s: %w", sessionID, err)
	}

	e.deliver(ctx, sessionID, fresh)
	e.publish(diff)
	return state, nil
}

// GetState returns the current state of the session.
func (e *Engine) GetState(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	state, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return state, nil
}

// EndSession synthesizes a departure when the patient has not reached it yet,
// archives the final state when an archive is configured, and discards the session.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	var fresh []domain.Notification
	var diff *domain.StateDiff

	err := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()
		state, err := store.Load(ctx, sessionID)
		if err != nil {
			return err
		}

		final := state
		if state.Stage.Before(domain.StageDeparture) {
			final = e.process(ctx, state, domain.NewLocationUpdate(domain.LocationSignal{Area: domain.AreaExit}))
			fresh = newNotifications(state, final)
			diff = domain.Diff(state, final)
		}

		if e.archive != nil {
			if err := e.archive.Save(ctx, sessionID, final); err != nil {
				return fmt.Errorf("failed to archive session: %w", err)
			}
		}
		if err := store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		e.logger.Info("session ended", "session_id", sessionID, "stage", final.Stage.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}

	e.deliver(ctx, sessionID, fresh)
	e.publish(diff)
	return nil
}

// ListSessions returns a summary of every live session.
// Sessions removed while the listing is built are skipped.
func (e *Engine) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]domain.SessionSummary, 0, len(ids))
	for _, id := range ids {
		state, err := e.sessions.Store().Load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		out = append(out, state.Summary())
	}
	return out, nil
}

// TriggerEmergency raises an emergency for the session, as the in-app emergency button does.
// The type is inferred from the description and defaults to general.
func (e *Engine) TriggerEmergency(ctx context.Context, sessionID, description string) (*domain.JourneyState, error) {
	kind, ok := e.detector.Detect(description)
	if !ok {
		kind = runtime.EmergencyGeneral
	}
	ev := domain.NewSystemSignal(domain.SignalEmergencyDetected, map[string]any{
		"type":        kind,
		"description": description,
	})
	ev.Source = "emergency_button"
	return e.HandleEvent(ctx, sessionID, ev)
}

// process routes ev against a copy of state and drains the queue.
// A routed emergency runs ahead of steps left queued by an interrupted drain.
func (e *Engine) process(ctx context.Context, state *domain.JourneyState, ev domain.Event) *domain.JourneyState {
	next := state.Clone()
	var urgent, routine []domain.Step
	for _, step := range e.router.Route(ctx, next, ev) {
		if step.Name == domain.StepHandleEmergency {
			urgent = append(urgent, step)
		} else {
			routine = append(routine, step)
		}
	}
	next.Preempt(urgent...)
	next.Enqueue(routine...)
	return e.executor.Execute(ctx, next)
}

func (e *Engine) deliver(ctx context.Context, sessionID string, notes []domain.Notification) {
	if e.notifier == nil {
		return
	}
	for _, n := range notes {
		if err := e.notifier.Notify(ctx, sessionID, n); err != nil {
			e.logger.Warn("notification delivery failed",
				"session_id", sessionID,
				"notification_id", n.ID,
				"err", err,
			)
		}
	}
}

func (e *Engine) publish(diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	for _, l := range e.listeners {
		l(diff)
	}
}

func newNotifications(old, next *domain.JourneyState) []domain.Notification {
	if len(next.Notifications) <= len(old.Notifications) {
		return nil
	}
	return next.Notifications[len(old.Notifications):]
}
