package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/gatekeeper/pkg/async"
)

// PasswordHasher hashes and verifies stored credentials.
type PasswordHasher interface {
	// Hash returns a salted one-way digest of plaintext.
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether digest was produced from plaintext.
	// A mismatch is (false, nil); malformed digests return ErrCredential.
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// BcryptHasher is a PasswordHasher backed by bcrypt. Work runs on a separate
// goroutine and the caller stops waiting when its context is done.
type BcryptHasher struct {
	cost int
}

// HasherOption configures a BcryptHasher.
type HasherOption func(*BcryptHasher)

// WithBcryptCost sets the bcrypt cost. Out-of-range values are ignored.
func WithBcryptCost(cost int) HasherOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

func NewBcryptHasher(opts ...HasherOption) *BcryptHasher {
	h := &BcryptHasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ PasswordHasher = (*BcryptHasher)(nil)

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	digest, err := async.Async(ctx, plaintext, func(_ context.Context, p string) ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(p), h.cost)
	}).Await(ctx)
	if err != nil {
		if isContextError(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrCredential, err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	ok, err := async.Async(ctx, plaintext, func(_ context.Context, p string) (bool, error) {
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(p))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}).Await(ctx)
	if err != nil {
		if isContextError(err) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrCredential, err)
	}
	return ok, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
