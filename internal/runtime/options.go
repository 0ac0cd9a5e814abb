package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// DefaultHandlerTimeout bounds a single handler invocation.
const DefaultHandlerTimeout = 10 * time.Second

type options struct {
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	timeout    time.Duration
	classifier ports.IntentClassifier
	resolver   ports.LocationResolver
	detector   *Detector
	now        func() time.Time
}

// Option configures the Router and the Executor.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithHandlerTimeout bounds each handler call. Zero disables the bound.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithClassifier sets the intent classifier consulted for user messages.
func WithClassifier(c ports.IntentClassifier) Option {
	return func(o *options) {
		o.classifier = c
	}
}

// WithLocationResolver sets the resolver for location updates without an explicit area.
func WithLocationResolver(r ports.LocationResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithDetector replaces the emergency keyword detector.
func WithDetector(d *Detector) Option {
	return func(o *options) {
		if d != nil {
			o.detector = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logging.NewNop(),
		timeout:  DefaultHandlerTimeout,
		detector: NewDetector(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
