package async

import (
	"context"
	"fmt"
)

// Future holds the outcome of a function started by Async.
type Future[U any] struct {
	done   chan struct{}
	result U
	err    error
}

// Await returns the outcome once it is ready, or ctx.Err() if ctx ends first.
// Giving up does not stop the function; its outcome is dropped.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// Done is closed when the function has returned.
func (f *Future[U]) Done() <-chan struct{} { return f.done }

// Async calls fn(ctx, param) on a new goroutine. fn is skipped when ctx is
// already done, and a panic in fn surfaces from Await as ErrPanic.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				f.result, f.err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()
	return f
}
