package ratelimiter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/ratelimiter"
)

func TestNewBucket_Validation(t *testing.T) {
	t.Parallel()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name   string
		store  ratelimiter.Store
		policy ratelimiter.Policy
	}{
		{"nil store", nil, ratelimiter.Policy{Capacity: 1, RefillRate: 1, RefillInterval: time.Second}},
		{"zero capacity", store, ratelimiter.Policy{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}},
		{"negative rate", store, ratelimiter.Policy{Capacity: 1, RefillRate: -1, RefillInterval: time.Second}},
		{"sub-millisecond interval", store, ratelimiter.Policy{Capacity: 1, RefillRate: 1, RefillInterval: time.Microsecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ratelimiter.NewBucket(tt.store, tt.policy)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}
}

func TestBucket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	policy := ratelimiter.Policy{Capacity: 3, RefillRate: 1, RefillInterval: 10 * time.Second}

	t.Run("spends then denies", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBucket(t, policy)

		for want := 2; want >= 0; want-- {
			res, err := b.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed())
			assert.Equal(t, want, res.Remaining)
			assert.Equal(t, 3, res.Limit)
			assert.Zero(t, res.RetryAfter)
		}

		clock.Advance(4 * time.Second)
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
		assert.Equal(t, 6*time.Second, res.RetryAfter)
	})

	t.Run("denied requests do not drain the bucket", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBucket(t, policy)

		_, err := b.AllowN(ctx, "k", 3)
		require.NoError(t, err)
		for range 5 {
			res, err := b.Allow(ctx, "k")
			require.NoError(t, err)
			assert.False(t, res.Allowed())
		}

		clock.Advance(policy.RefillInterval)
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("allowN larger than capacity", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBucket(t, policy)

		res, err := b.AllowN(ctx, "k", 4)
		require.NoError(t, err)
		assert.False(t, res.Allowed())

		peek, err := b.Peek(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 3, peek.Remaining)
	})

	t.Run("invalid token count", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBucket(t, policy)

		_, err := b.AllowN(ctx, "k", 0)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
		_, err = b.AllowN(ctx, "k", -2)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})

	t.Run("peek does not spend", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBucket(t, policy)

		for range 3 {
			res, err := b.Peek(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, 3, res.Remaining)
		}
	})

	t.Run("reset restores the allowance", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBucket(t, policy)

		_, err := b.AllowN(ctx, "k", 3)
		require.NoError(t, err)
		require.NoError(t, b.Reset(ctx, "k"))

		res, err := b.Peek(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Remaining)
	})

	t.Run("store errors are returned", func(t *testing.T) {
		t.Parallel()
		b, err := ratelimiter.NewBucket(failingStore{}, policy)
		require.NoError(t, err)

		_, err = b.Allow(ctx, "k")
		assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
	})
}

func TestBucket_Concurrent(t *testing.T) {
	t.Parallel()
	b, _ := newTestBucket(t, ratelimiter.Policy{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(context.Background(), "shared")
			if err == nil && res.Allowed() {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowed.Load())
}
