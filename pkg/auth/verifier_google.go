package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	googleIssuer   = "https://accounts.google.com"
	googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"
)

// GoogleVerifier checks Google ID tokens: RS256 signature against Google's
// published keys, issuer, expiry and audience equal to this service's OAuth
// client ID.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
	timeout  time.Duration
}

type googleConfig struct {
	keySet   oidc.KeySet
	certsURL string
	client   *http.Client
	timeout  time.Duration
	now      func() time.Time
}

// GoogleOption configures a GoogleVerifier.
type GoogleOption func(*googleConfig)

// WithGoogleKeySet replaces the remote key set, e.g. with oidc.StaticKeySet in tests.
func WithGoogleKeySet(ks oidc.KeySet) GoogleOption {
	return func(c *googleConfig) { c.keySet = ks }
}

// WithGoogleCertsURL overrides the JWKS endpoint.
func WithGoogleCertsURL(url string) GoogleOption {
	return func(c *googleConfig) {
		if url != "" {
			c.certsURL = url
		}
	}
}

// WithGoogleTimeout bounds verification, including key fetches.
func WithGoogleTimeout(d time.Duration) GoogleOption {
	return func(c *googleConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGoogleClock overrides the time used for expiry checks.
func WithGoogleClock(now func() time.Time) GoogleOption {
	return func(c *googleConfig) { c.now = now }
}

// NewGoogleVerifier creates a verifier for tokens issued to clientID.
func NewGoogleVerifier(clientID string, opts ...GoogleOption) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	cfg := &googleConfig{
		certsURL: googleCertsURL,
		timeout:  DefaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{Timeout: cfg.timeout}
	}

	keySet := cfg.keySet
	if keySet == nil {
		// Key fetches run under this context, detached from any single request.
		keySet = oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), cfg.client), cfg.certsURL)
	}

	return &GoogleVerifier{
		verifier: oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{
			ClientID:             clientID,
			SupportedSigningAlgs: []string{oidc.RS256},
			Now:                  cfg.now,
		}),
		timeout: cfg.timeout,
	}, nil
}

var _ IdentityVerifier = (*GoogleVerifier)(nil)

func (g *GoogleVerifier) Provider() Provider { return ProviderGoogle }

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	idToken, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return Claim{}, verificationError(ProviderGoogle, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Claim{}, verificationError(ProviderGoogle, err)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return Claim{}, verificationError(ProviderGoogle, ErrUnverifiedEmail)
	}

	return newClaim(ProviderGoogle, idToken.Subject, claims.Email, claims.Name)
}
