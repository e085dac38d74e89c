package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisCompletionCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_MissThenHit", func(t *testing.T) {
		server, client := newRedis(t)
		cache := NewRedisCompletionCache(client, "fulfillment", time.Hour)

		completed, err := cache.IsCompleted(ctx, "SPEI1ABC")
		require.NoError(t, err)
		assert.False(t, completed)

		require.NoError(t, cache.MarkCompleted(ctx, "SPEI1ABC"))
		assert.True(t, server.Exists("fulfillment:completed:SPEI1ABC"))

		completed, err = cache.IsCompleted(ctx, "SPEI1ABC")
		require.NoError(t, err)
		assert.True(t, completed)
	})

	t.Run("Success_Expires", func(t *testing.T) {
		server, client := newRedis(t)
		cache := NewRedisCompletionCache(client, "fulfillment", time.Hour)

		require.NoError(t, cache.MarkCompleted(ctx, "CODI1"))
		server.FastForward(2 * time.Hour)

		completed, err := cache.IsCompleted(ctx, "CODI1")
		require.NoError(t, err)
		assert.False(t, completed)
	})

	t.Run("Error_ServerDown", func(t *testing.T) {
		server, client := newRedis(t)
		cache := NewRedisCompletionCache(client, "fulfillment", time.Hour)
		server.Close()

		_, err := cache.IsCompleted(ctx, "SPEI1ABC")
		assert.Error(t, err)
		assert.Error(t, cache.MarkCompleted(ctx, "SPEI1ABC"))
	})
}

func TestNoOpCompletionCache(t *testing.T) {
	cache := NewNoOpCompletionCache()

	require.NoError(t, cache.MarkCompleted(context.Background(), "SPEI1"))
	completed, err := cache.IsCompleted(context.Background(), "SPEI1")
	require.NoError(t, err)
	assert.False(t, completed)
}
