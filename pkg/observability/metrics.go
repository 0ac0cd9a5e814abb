package observability

import (
	"context"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters and histograms for journey processing.
type Metrics struct {
	eventsRouted      *prometheus.CounterVec
	steps             *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	emergencies       *prometheus.CounterVec
	activeEmergencies prometheus.Gauge
}

// NewMetrics registers the journey metrics on reg, or the default registerer when nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsRouted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carepath",
			Subsystem: "router",
			Name:      "events_total",
			Help:      "Inbound events routed, by kind",
		}, []string{"kind"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carepath",
			Subsystem: "executor",
			Name:      "steps_total",
			Help:      "Steps dequeued by the executor, by step and outcome",
		}, []string{"step", "outcome"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carepath",
			Subsystem: "executor",
			Name:      "step_duration_seconds",
			Help:      "Handler latency of executed and failed steps",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		emergencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carepath",
			Subsystem: "emergency",
			Name:      "transitions_total",
			Help:      "Emergency activations and resolutions, by type",
		}, []string{"type", "transition"}),
		activeEmergencies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "carepath",
			Subsystem: "emergency",
			Name:      "active",
			Help:      "Sessions with an emergency in progress",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.eventsRouted, m.steps, m.stepDuration, m.emergencies, m.activeEmergencies)
	return m
}

// Hooks returns lifecycle hooks that record into m. A nil receiver yields empty hooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	if m == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnEventRouted: func(ctx context.Context, e *domain.RouteEvent) {
			m.eventsRouted.WithLabelValues(string(e.Kind)).Inc()
		},
		OnStepExecuted:  m.observeStep,
		OnStepFailed:    m.observeStep,
		OnStepDiscarded: m.observeStep,
		OnEmergency: func(ctx context.Context, e *domain.EmergencyEvent) {
			if e.Resolved {
				m.emergencies.WithLabelValues(e.Type, "resolved").Inc()
				m.activeEmergencies.Dec()
				return
			}
			m.emergencies.WithLabelValues(e.Type, "activated").Inc()
			m.activeEmergencies.Inc()
		},
	}
}

func (m *Metrics) observeStep(ctx context.Context, e *domain.StepEvent) {
	m.steps.WithLabelValues(e.Step, string(e.Outcome)).Inc()
	if e.Outcome != domain.OutcomeDiscarded {
		m.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
	}
}
