package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a token bucket: Capacity tokens at most, RefillRate
// tokens credited every RefillInterval.
type Policy struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

func (p Policy) validate() error {
	if p.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, p.Capacity)
	}
	if p.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, p.RefillRate)
	}
	if p.RefillInterval < time.Millisecond {
		return fmt.Errorf("%w: refill interval must be at least 1ms, got %v", ErrInvalidConfig, p.RefillInterval)
	}
	return nil
}

// Store persists buckets by key.
type Store interface {
	// Take credits the whole refill intervals elapsed for key and removes
	// n tokens when that many are available. It returns the balance after
	// the request, negative when denied, and the time of the next refill.
	// A denied request leaves the balance untouched.
	Take(ctx context.Context, key string, n int, p Policy) (remaining int, nextRefill time.Time, err error)

	// Reset forgets key, so its next request starts from a full bucket.
	Reset(ctx context.Context, key string) error
}

// Result is the outcome of one limiter call.
type Result struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

// Allowed reports whether the tokens were granted.
func (r Result) Allowed() bool { return r.Remaining >= 0 }

// RateLimiter grants or denies requests per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	AllowN(ctx context.Context, key string, n int) (Result, error)
}

// Bucket applies one Policy to every key of a Store.
type Bucket struct {
	store  Store
	policy Policy
	now    func() time.Time
}

var _ RateLimiter = (*Bucket)(nil)

// BucketOption configures a Bucket.
type BucketOption func(*Bucket)

// WithBucketClock overrides the time source used for RetryAfter.
func WithBucketClock(now func() time.Time) BucketOption {
	return func(b *Bucket) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBucket returns a limiter enforcing p on store.
func NewBucket(store Store, p Policy, opts ...BucketOption) (*Bucket, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	b := &Bucket{store: store, policy: p, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Allow takes a single token.
func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN takes n tokens at once.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}
	return b.take(ctx, key, n)
}

// Peek reports the balance of key without spending tokens.
func (b *Bucket) Peek(ctx context.Context, key string) (Result, error) {
	return b.take(ctx, key, 0)
}

// Reset restores the full allowance of key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

func (b *Bucket) take(ctx context.Context, key string, n int) (Result, error) {
	remaining, next, err := b.store.Take(ctx, key, n, b.policy)
	if err != nil {
		return Result{}, err
	}

	res := Result{Limit: b.policy.Capacity, Remaining: remaining, ResetAt: next}
	if !res.Allowed() {
		res.RetryAfter = max(next.Sub(b.now()), 0)
	}
	return res, nil
}
