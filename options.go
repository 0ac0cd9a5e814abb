package carepath

import (
	"log/slog"
	"time"

	"github.com/aretw0/carepath/internal/runtime"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/guardrail"
	"github.com/aretw0/carepath/pkg/handlers"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/aretw0/carepath/pkg/registry"
	"github.com/aretw0/carepath/pkg/session"
)

// StateListener receives the changes produced by each processed event.
type StateListener func(diff *domain.StateDiff)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithArchive keeps the final state of ended sessions in store.
func WithArchive(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.archive = store
	}
}

// WithLocker enables distributed session locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLocker(locker))
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, session.WithLockTTL(ttl))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithClassifier replaces the default keyword intent classifier.
func WithClassifier(c ports.IntentClassifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithLocationResolver replaces the default venue resolver.
func WithLocationResolver(r ports.LocationResolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithNotifier delivers every new notification after an event is processed.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithStateListener is called with the diff of every processed event.
func WithStateListener(l StateListener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// WithHandlerTimeout bounds each handler invocation.
func WithHandlerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithHandlerTimeout(d))
	}
}

// WithWaitList sets the department queue used by the built-in handlers.
func WithWaitList(wl ports.WaitList) Option {
	return func(e *Engine) {
		e.handlerOpts = append(e.handlerOpts, handlers.WithWaitList(wl))
	}
}

// WithInsuranceVerifier checks coverage during check-in.
func WithInsuranceVerifier(v ports.InsuranceVerifier) Option {
	return func(e *Engine) {
		e.handlerOpts = append(e.handlerOpts, handlers.WithInsuranceVerifier(v))
	}
}

// WithMinutesPerPatient tunes the wait estimate.
func WithMinutesPerPatient(n int) Option {
	return func(e *Engine) {
		e.handlerOpts = append(e.handlerOpts, handlers.WithMinutesPerPatient(n))
	}
}

// WithHandlers registers extra or replacement step handlers after the built-in ones.
func WithHandlers(register func(*registry.Registry)) Option {
	return func(e *Engine) {
		e.extraHandlers = append(e.extraHandlers, register)
	}
}

// WithGuardrails replaces the default guardrail table.
func WithGuardrails(t *guardrail.Table) Option {
	return func(e *Engine) {
		e.guards = t
	}
}

// WithGuard adds or replaces the precondition of a named step. Guards are registered on
// the default table, or on the one given with WithGuardrails.
func WithGuard(step string, guard guardrail.Guard) Option {
	return func(e *Engine) {
		e.extraGuards = append(e.extraGuards, namedGuard{step, guard})
	}
}

type namedGuard struct {
	step  string
	guard guardrail.Guard
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		e.newID = gen
	}
}
