package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/jwt"
)

const strongPassword = "Corr3ct-Horse!Battery"

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims gojwt.MapClaims) string {
	t.Helper()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newTokens(t *testing.T) *jwt.Service {
	t.Helper()
	tokens, err := jwt.NewFromString("test-signing-key", jwt.WithTTL(time.Hour))
	require.NoError(t, err)
	return tokens
}

func newHasher() *auth.BcryptHasher {
	return auth.NewBcryptHasher(auth.WithBcryptCost(bcrypt.MinCost))
}

// stubVerifier returns a fixed claim or error.
type stubVerifier struct {
	provider auth.Provider
	claim    auth.Claim
	err      error
}

func (v stubVerifier) Provider() auth.Provider { return v.provider }

func (v stubVerifier) Verify(_ context.Context, token string) (auth.Claim, error) {
	if v.err != nil {
		return auth.Claim{}, v.err
	}
	if token == "" {
		return auth.Claim{}, auth.ErrVerification
	}
	return v.claim, nil
}

type testEnv struct {
	svc    *auth.Service
	dir    *auth.MemoryDirectory
	tokens *jwt.Service
}

func newTestEnv(t *testing.T, verifiers []auth.IdentityVerifier, opts ...auth.Option) testEnv {
	t.Helper()
	dir := auth.NewMemoryDirectory()
	tokens := newTokens(t)
	return testEnv{
		svc:    auth.NewService(dir, newHasher(), tokens, auth.NewVerifiers(verifiers...), opts...),
		dir:    dir,
		tokens: tokens,
	}
}

func strPtr(s string) *string { return &s }
