package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := observability.NewMetrics(reg).Hooks()
	ctx := context.Background()

	hooks.OnEventRouted(ctx, &domain.RouteEvent{Kind: domain.EventUserMessage})
	hooks.OnStepExecuted(ctx, &domain.StepEvent{Step: "start_visit", Outcome: domain.OutcomeExecuted, Duration: time.Millisecond})
	hooks.OnStepDiscarded(ctx, &domain.StepEvent{Step: "generate_discharge", Outcome: domain.OutcomeDiscarded, Reason: "guardrail"})
	hooks.OnEmergency(ctx, &domain.EmergencyEvent{Type: "cardiac"})

	assert.Equal(t, 6, testutil.CollectAndCount(reg,
		"carepath_router_events_total",
		"carepath_executor_steps_total",
		"carepath_executor_step_duration_seconds",
		"carepath_emergency_transitions_total",
		"carepath_emergency_active",
	))

	hooks.OnEmergency(ctx, &domain.EmergencyEvent{Type: "cardiac", Resolved: true})
	count, err := testutil.GatherAndCount(reg, "carepath_emergency_transitions_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *observability.Metrics
	hooks := m.Hooks()
	assert.Nil(t, hooks.OnEventRouted)
}
