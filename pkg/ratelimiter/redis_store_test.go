//go:build integration

package ratelimiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/dmitrymomot/gatekeeper/pkg/ratelimiter"
	"github.com/dmitrymomot/gatekeeper/pkg/redis"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := redis.Connect(ctx, redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 30 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, redis.Healthcheck(client)(ctx))

	clock := newFakeClock()
	store := ratelimiter.NewRedisStore(client, ratelimiter.WithRedisClock(clock.Now))
	policy := ratelimiter.Policy{Capacity: 5, RefillRate: 1, RefillInterval: 100 * time.Millisecond}

	t.Run("matches memory store semantics", func(t *testing.T) {
		remaining, resetAt, err := store.Take(ctx, "k1", 3, policy)
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
		assert.Equal(t, clock.Now().Add(policy.RefillInterval).UnixMilli(), resetAt.UnixMilli())

		remaining, _, err = store.Take(ctx, "k1", 4, policy)
		require.NoError(t, err)
		assert.Equal(t, -2, remaining)

		remaining, _, err = store.Take(ctx, "k1", 0, policy)
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)

		clock.Advance(2*policy.RefillInterval + time.Millisecond)
		remaining, _, err = store.Take(ctx, "k1", 0, policy)
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
	})

	t.Run("partial interval carries over", func(t *testing.T) {
		start := clock.Now()
		_, _, err := store.Take(ctx, "k4", policy.Capacity, policy)
		require.NoError(t, err)

		clock.Advance(policy.RefillInterval * 3 / 2)
		remaining, resetAt, err := store.Take(ctx, "k4", 0, policy)
		require.NoError(t, err)
		assert.Equal(t, 1, remaining)
		assert.Equal(t, start.Add(2*policy.RefillInterval).UnixMilli(), resetAt.UnixMilli())

		clock.Advance(policy.RefillInterval / 2)
		remaining, _, err = store.Take(ctx, "k4", 0, policy)
		require.NoError(t, err)
		assert.Equal(t, 2, remaining)
	})

	t.Run("reset", func(t *testing.T) {
		_, _, err := store.Take(ctx, "k2", 5, policy)
		require.NoError(t, err)
		require.NoError(t, store.Reset(ctx, "k2"))

		remaining, _, err := store.Take(ctx, "k2", 0, policy)
		require.NoError(t, err)
		assert.Equal(t, policy.Capacity, remaining)
	})

	t.Run("keys expire", func(t *testing.T) {
		_, _, err := store.Take(ctx, "k3", 1, policy)
		require.NoError(t, err)

		ttl, err := client.PTTL(ctx, ratelimiter.DefaultRedisPrefix+"k3").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("login guard over redis", func(t *testing.T) {
		guard, err := ratelimiter.NewLoginGuard(ratelimiter.NewRedisStore(client), 2, time.Minute)
		require.NoError(t, err)

		require.NoError(t, guard.Check(ctx, "r@b.io"))
		require.NoError(t, guard.Check(ctx, "r@b.io"))
		require.ErrorIs(t, guard.Check(ctx, "r@b.io"), ratelimiter.ErrTooManyAttempts)
		require.NoError(t, guard.Reset(ctx, "r@b.io"))
		require.NoError(t, guard.Check(ctx, "r@b.io"))
	})
}
