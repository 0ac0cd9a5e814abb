package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewJourneyState(sessionID, domain.PatientInfo{PatientID: "p-1", Department: "cardiology"})
		require.NoError(t, state.AdvanceTo(domain.StageWaiting))
		state.QueuePosition = 3
		state.Enqueue(domain.Parameterized(domain.StepNavigate, map[string]any{"destination": "exam_room"}))
		state.RecordEvent(domain.NewUserMessage("how long is the wait?"), []domain.Step{domain.Named(domain.StepUpdateWaitTime)})

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StageWaiting, loaded.Stage)
		assert.Equal(t, 3, loaded.QueuePosition)
		assert.Equal(t, "cardiology", loaded.Patient.Department)
		require.Len(t, loaded.PendingSteps, 1)
		assert.Equal(t, "exam_room", loaded.PendingSteps[0].Args["destination"])
		require.Len(t, loaded.EventHistory, 1)
		assert.Equal(t, []string{domain.StepUpdateWaitTime}, loaded.EventHistory[0].Steps)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewJourneyState(sessionID, domain.PatientInfo{})
		require.NoError(t, store.Save(ctx, sessionID, state))

		state.QueuePosition = 99
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Zero(t, loaded.QueuePosition, "mutating the saved value must not leak into the store")
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewJourneyState(sessionID, domain.PatientInfo{}))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewJourneyState(id1, domain.PatientInfo{}))
		_ = store.Save(ctx, id2, domain.NewJourneyState(id2, domain.PatientInfo{}))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
