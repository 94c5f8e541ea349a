package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/portlet/pkg/adapters/redis"
	"github.com/aretw0/portlet/pkg/domain"
	"github.com/aretw0/portlet/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunPreferencesStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	key := "news:w1"

	require.NoError(t, store.Save(ctx, key, map[string][]string{"count": {"5"}}))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrPreferencesNotFound)

	// The index is pruned against wall-clock time.
	time.Sleep(1200 * time.Millisecond)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "w1", map[string][]string{"a": {"1"}}))

	assert.True(t, mr.Exists("custom:app:set:w1"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1"}, keys)
}

func TestRedisStore_KeysDoNotCollideWithIndex(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alpha", map[string][]string{"a": {"1"}}))
	require.NoError(t, store.Save(ctx, "index", map[string][]string{"b": {"2"}}))
	require.NoError(t, store.Save(ctx, "lock:x", map[string][]string{"c": {"3"}}))

	loaded, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, loaded["b"])

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "index", "lock:x"}, keys)
	assert.True(t, mr.Exists(redis.DefaultPrefix+"set:index"))

	require.NoError(t, store.Delete(ctx, "index"))
	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "lock:x"}, keys)
}

func TestRedisStore_ConnectionFailure(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	err := store.Save(context.Background(), "k", map[string][]string{"a": {"1"}})
	require.Error(t, err)
	assert.True(t, domain.IsIOError(err), "backend failures are I/O errors")
}
