package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), "hunter2", func(_ context.Context, p string) (int, error) {
			return len(p), nil
		})

		n, err := f.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Eventually(t, func() bool {
			select {
			case <-f.Done():
				return true
			default:
				return false
			}
		}, time.Second, time.Millisecond)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
			return 0, boom
		})

		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("done context skips function", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := make(chan struct{}, 1)
		f := async.Async(ctx, 0, func(_ context.Context, _ int) (int, error) {
			called <- struct{}{}
			return 1, nil
		})

		<-f.Done()
		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, called)
	})

	t.Run("caller stops waiting", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		defer close(release)

		f := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
			<-release
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := f.Await(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("panic becomes error", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 0, func(_ context.Context, _ int) (int, error) {
			panic("kaboom")
		})

		_, err := f.Await(context.Background())
		assert.ErrorIs(t, err, async.ErrPanic)
		assert.Contains(t, err.Error(), "kaboom")
	})
}
