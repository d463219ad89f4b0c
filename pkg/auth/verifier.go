package auth

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// DefaultProviderTimeout bounds every outbound call made while verifying a
// provider token.
const DefaultProviderTimeout = 5 * time.Second

// IdentityVerifier validates a provider-issued token against that provider's
// trust root and extracts the identity it asserts.
type IdentityVerifier interface {
	Provider() Provider
	// Verify returns a Claim with a normalized, non-empty email. Every
	// failure, including network errors and timeouts, matches ErrVerification.
	Verify(ctx context.Context, token string) (Claim, error)
}

// Verifiers selects an IdentityVerifier by provider tag.
type Verifiers struct {
	byProvider map[Provider]IdentityVerifier
}

// NewVerifiers builds a registry. Later verifiers replace earlier ones for
// the same provider; nil entries are skipped.
func NewVerifiers(vs ...IdentityVerifier) *Verifiers {
	r := &Verifiers{byProvider: make(map[Provider]IdentityVerifier, len(vs))}
	for _, v := range vs {
		if v != nil {
			r.byProvider[v.Provider()] = v
		}
	}
	return r
}

// Get returns the verifier for p or ErrUnknownProvider.
func (r *Verifiers) Get(p Provider) (IdentityVerifier, error) {
	if r != nil {
		if v, ok := r.byProvider[p]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
}

// Providers lists the registered provider tags in sorted order.
func (r *Verifiers) Providers() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.byProvider))
	for p := range r.byProvider {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// verificationError wraps cause so that it matches ErrVerification and keeps
// the provider name in the message.
func verificationError(p Provider, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrVerification, p, cause)
}

// newClaim normalizes provider output into a Claim.
func newClaim(p Provider, subject, email, name string) (Claim, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Claim{}, verificationError(p, ErrMissingEmail)
	}
	return Claim{
		Subject:     subject,
		Email:       email,
		DisplayName: displayName(name, email),
	}, nil
}
