//go:build integration

package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"warden/internal/platform/redis"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := redis.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCounterStoreIncrement(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisCounterStore(client)
	ctx := context.Background()

	t.Run("counts within a window", func(t *testing.T) {
		for want := 1; want <= 3; want++ {
			count, err := store.Increment(ctx, "g1:u1:verify", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, want, count)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		count, err := store.Increment(ctx, "g1:u2:verify", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("window carries a TTL", func(t *testing.T) {
		_, err := store.Increment(ctx, "g1:u3:verify", time.Minute)
		require.NoError(t, err)

		ttl, err := client.TTL(ctx, "warden:ratelimit:g1:u3:verify").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("count resets when the window expires", func(t *testing.T) {
		count, err := store.Increment(ctx, "g1:u4:verify", time.Second)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		count, err = store.Increment(ctx, "g1:u4:verify", time.Second)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		time.Sleep(1200 * time.Millisecond)

		count, err = store.Increment(ctx, "g1:u4:verify", time.Second)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "expired window must start a fresh count")
	})
}
