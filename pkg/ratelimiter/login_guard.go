package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

const loginKeyPrefix = "login:"

// LimitError is returned when a key has no attempts left.
// It matches ErrTooManyAttempts via errors.Is.
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error { return ErrTooManyAttempts }

// LoginGuard limits password login attempts per email. Each check consumes
// one attempt; a successful login resets the key.
type LoginGuard struct {
	bucket *Bucket
}

// NewLoginGuard allows maxAttempts logins per email within window. The full
// allowance returns window after the first attempt.
func NewLoginGuard(store Store, maxAttempts int, window time.Duration) (*LoginGuard, error) {
	bucket, err := NewBucket(store, Policy{
		Capacity:       maxAttempts,
		RefillRate:     maxAttempts,
		RefillInterval: window,
	})
	if err != nil {
		return nil, err
	}
	return &LoginGuard{bucket: bucket}, nil
}

// Check consumes an attempt for email. It returns a *LimitError when none
// are left and store errors as is.
func (g *LoginGuard) Check(ctx context.Context, email string) error {
	result, err := g.bucket.Allow(ctx, loginKey(email))
	if err != nil {
		return err
	}
	if !result.Allowed() {
		return &LimitError{RetryAfter: result.RetryAfter}
	}
	return nil
}

// Reset restores the full allowance for email.
func (g *LoginGuard) Reset(ctx context.Context, email string) error {
	return g.bucket.Reset(ctx, loginKey(email))
}

func loginKey(email string) string {
	return loginKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// RetryAfterSeconds rounds d up to whole seconds for a Retry-After header.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
