package auth

import (
	"context"
	"crypto"
	"slices"
	"strconv"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

const (
	appleIssuer  = "https://appleid.apple.com"
	AppleKeysURL = "https://appleid.apple.com/auth/keys"
)

// KeyResolver returns the public key for a key ID. *jwks.KeySet implements it.
type KeyResolver interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// AppleVerifier checks Sign in with Apple ID tokens. Only RS256 is accepted,
// so tokens announcing "none" or an HMAC algorithm are rejected before any
// key is used. The key is resolved by the token's kid.
type AppleVerifier struct {
	keys      KeyResolver
	audiences []string
	timeout   time.Duration
	now       func() time.Time
}

// AppleOption configures an AppleVerifier.
type AppleOption func(*AppleVerifier)

// WithAppleAudiences restricts accepted tokens to these client IDs (bundle or
// service IDs). Without it the audience is not checked.
func WithAppleAudiences(clientIDs ...string) AppleOption {
	return func(v *AppleVerifier) {
		for _, id := range clientIDs {
			if id != "" {
				v.audiences = append(v.audiences, id)
			}
		}
	}
}

// WithAppleTimeout bounds verification, including key fetches.
func WithAppleTimeout(d time.Duration) AppleOption {
	return func(v *AppleVerifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithAppleClock overrides the time used for expiry checks.
func WithAppleClock(now func() time.Time) AppleOption {
	return func(v *AppleVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

func NewAppleVerifier(keys KeyResolver, opts ...AppleOption) *AppleVerifier {
	v := &AppleVerifier{
		keys:    keys,
		timeout: DefaultProviderTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ IdentityVerifier = (*AppleVerifier)(nil)

func (a *AppleVerifier) Provider() Provider { return ProviderApple }

type appleClaims struct {
	gojwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name,omitempty"`
}

func (a *AppleVerifier) Verify(ctx context.Context, token string) (Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithIssuer(appleIssuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(a.now),
		gojwt.WithLeeway(30*time.Second),
	)

	var claims appleClaims
	_, err := parser.ParseWithClaims(token, &claims, func(t *gojwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		return a.keys.Key(ctx, kid)
	})
	if err != nil {
		return Claim{}, verificationError(ProviderApple, err)
	}

	if len(a.audiences) > 0 && !slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(a.audiences, aud)
	}) {
		return Claim{}, verificationError(ProviderApple, ErrAudienceMismatch)
	}
	if isExplicitFalse(claims.EmailVerified) {
		return Claim{}, verificationError(ProviderApple, ErrUnverifiedEmail)
	}

	return newClaim(ProviderApple, claims.Subject, claims.Email, claims.Name)
}

// isExplicitFalse handles Apple sending email_verified as either a bool or a string.
func isExplicitFalse(v any) bool {
	switch b := v.(type) {
	case bool:
		return !b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && !parsed
	default:
		return false
	}
}
