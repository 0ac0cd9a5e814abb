package waitlist_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/aretw0/carepath/pkg/waitlist"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWaitListContract(t *testing.T, wl ports.WaitList) {
	ctx := context.Background()

	pos, err := wl.Join(ctx, "cardiology", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = wl.Join(ctx, "cardiology", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	pos, err = wl.Join(ctx, "cardiology", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pos, "joining twice keeps the original place")

	pos, err = wl.Join(ctx, "radiology", "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, pos, "queues are independent")

	require.NoError(t, wl.Leave(ctx, "cardiology", "alice"))
	pos, err = wl.Position(ctx, "cardiology", "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = wl.Position(ctx, "cardiology", "alice")
	require.NoError(t, err)
	assert.Zero(t, pos)

	assert.NoError(t, wl.Leave(ctx, "cardiology", "nobody"))
}

func TestMemory(t *testing.T) {
	runWaitListContract(t, waitlist.NewMemory())
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	runWaitListContract(t, waitlist.NewRedis(client, "test:queue:"))
	assert.True(t, mr.Exists("test:queue:cardiology"))
}
