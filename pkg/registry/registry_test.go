package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(domain.StepStartVisit, func(ctx context.Context, s *domain.JourneyState) (*domain.JourneyState, error) {
		s.VisitStarted = true
		return s, nil
	})
	r.RegisterParam(domain.StepNavigate, func(ctx context.Context, s *domain.JourneyState, args map[string]any) (*domain.JourneyState, error) {
		s.Destination = domain.Area(args["destination"].(string))
		return s, nil
	})

	h, ok := r.Handler(domain.StepStartVisit)
	require.True(t, ok)
	out, err := h(context.Background(), &domain.JourneyState{})
	require.NoError(t, err)
	assert.True(t, out.VisitStarted)

	p, ok := r.ParamHandler(domain.StepNavigate)
	require.True(t, ok)
	out, err = p(context.Background(), &domain.JourneyState{}, map[string]any{"destination": "lab"})
	require.NoError(t, err)
	assert.Equal(t, domain.AreaLab, out.Destination)

	_, ok = r.Handler(domain.StepNavigate)
	assert.False(t, ok, "parameterized handlers are not visible as named handlers")

	assert.Equal(t, []string{domain.StepNavigate, domain.StepStartVisit}, r.Names())
}
