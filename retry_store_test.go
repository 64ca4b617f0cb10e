package auth_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	auth "github.com/ministryofjustice/hmpps-auth-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRetryCounterStore(t *testing.T) {
	store := auth.NewMemoryRetryCounterStore()
	ctx := context.Background()

	count, exists, err := store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, "BOB", 2))

	count, exists, err = store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 2, count)

	// a zero write is still a present counter
	require.NoError(t, store.Put(ctx, "BOB", 0))
	count, exists, err = store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 0, count)
}

func newRedisStore(t *testing.T) (*auth.RedisRetryCounterStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisRetryCounterStore(client), srv
}

func TestRedisRetryCounterStore(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	count, exists, err := store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, "BOB", 3))

	count, exists, err = store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 3, count)
}

func TestRedisRetryCounterStoreKeying(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "BOB", 1))

	val, err := srv.Get("retries:BOB")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	// another username does not collide
	count, exists, err := store.Get(ctx, "ALICE")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, count)
}

func TestRedisRetryCounterStoreCorruptValue(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, srv.Set("retries:BOB", "not-a-number"))

	// corrupt values read as absent and the next write repairs them
	count, exists, err := store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Put(ctx, "BOB", 1))
	count, exists, err = store.Get(ctx, "BOB")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, count)
}

func TestRedisRetryCounterStoreConnectionError(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := auth.NewRedisRetryCounterStore(client)
	srv.Close()

	_, _, err := store.Get(context.Background(), "BOB")
	assert.Error(t, err)
	assert.Error(t, store.Put(context.Background(), "BOB", 1))
}
