package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/carepath/pkg/adapters/memory"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_CopyOnRead(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	state := domain.NewJourneyState("s1", domain.PatientInfo{})
	state.AddTask(domain.Task{ID: domain.TaskCompleteForms})
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	loaded.PendingTasks[0].Title = "mutated"
	loaded.Arrived = true

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.PendingTasks[0].Title)
	assert.False(t, again.Arrived)
}

func TestMemoryStore_RejectsNilState(t *testing.T) {
	store := memory.NewStore()
	assert.Error(t, store.Save(context.Background(), "s1", nil))
	assert.Zero(t, store.Len())
}
