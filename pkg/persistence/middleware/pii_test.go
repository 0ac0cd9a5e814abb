package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := NewMockStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	state := domain.NewJourneyState("s1", domain.PatientInfo{Email: "jane@example.com"})
	state.RecordEvent(domain.NewUserMessage("email me at jane@example.com or call +1 (555) 010-9999"), nil)
	state.RecordEvent(domain.NewUserMessage("where is the pharmacy"), nil)
	state.Notify(domain.Notification{Message: "we will text 555-123-4567"})
	state.Enqueue(domain.Parameterized(domain.StepHandleEmergency, map[string]any{"message": "my ssn is 123-45-6789", "type": "general"}))

	require.NoError(t, store.Save(ctx, "s1", state))

	assert.Contains(t, state.EventHistory[0].Detail, "jane@example.com", "in-memory state is untouched")
	assert.Equal(t, "my ssn is 123-45-6789", state.PendingSteps[0].Args["message"])

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "email me at *** or call ***", stored.EventHistory[0].Detail)
	assert.Equal(t, "where is the pharmacy", stored.EventHistory[1].Detail)
	assert.Equal(t, "we will text ***", stored.Notifications[0].Message)
	assert.Equal(t, "my ssn is ***", stored.PendingSteps[0].Args["message"])
	assert.Equal(t, "general", stored.PendingSteps[0].Args["type"])
	assert.Equal(t, "jane@example.com", stored.Patient.Email, "structured fields are kept")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	underlying := NewMockStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key('k')})
	require.NoError(t, err)
	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()

	state := domain.NewJourneyState("s1", domain.PatientInfo{})
	state.RecordEvent(domain.NewUserMessage("reach me at a@b.io"), nil)
	require.NoError(t, store.Save(ctx, "s1", state))

	raw, _ := underlying.Load(ctx, "s1")
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "reach me at ***", loaded.EventHistory[0].Detail)
}
