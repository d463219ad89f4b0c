package auth_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

const (
	fbAppID     = "1234567890"
	fbAppSecret = "app-secret"
	fbAppToken  = "app-access-token"
)

type graphServer struct {
	*httptest.Server
	tokenCalls atomic.Int32
	hangDebug  atomic.Bool
}

// newGraphServer fakes the Graph API endpoints used by FacebookVerifier.
// Known user tokens: "good", "no-email", "other-app" and anything starting
// with "slow", which hangs. Anything else is invalid. Credentials arrive as
// bearer tokens, never in the query string.
func newGraphServer(t *testing.T) *graphServer {
	t.Helper()
	gs := &graphServer{}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	graphError := func(w http.ResponseWriter) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{
			"message": "Invalid OAuth access token.",
			"type":    "OAuthException",
			"code":    190,
		}})
	}

	bearer := func(r *http.Request) string {
		if r.URL.Query().Has("access_token") {
			t.Errorf("access_token sent in query for %s", r.URL.Path)
		}
		return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	hang := func(r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		gs.tokenCalls.Add(1)
		_ = r.ParseForm()
		if r.PostForm.Get("client_id") != fbAppID || r.PostForm.Get("client_secret") != fbAppSecret {
			graphError(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": fbAppToken, "token_type": "bearer"})
	})
	mux.HandleFunc("GET /debug_token", func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) != fbAppToken {
			graphError(w)
			return
		}
		data := map[string]any{"is_valid": false}
		input := r.URL.Query().Get("input_token")
		switch {
		case input == "good", input == "no-email":
			data = map[string]any{"is_valid": true, "app_id": fbAppID}
		case input == "other-app":
			data = map[string]any{"is_valid": true, "app_id": "999"}
		case strings.HasPrefix(input, "slow"):
			if gs.hangDebug.Load() {
				hang(r)
			}
			data = map[string]any{"is_valid": true, "app_id": fbAppID}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": data})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		token := bearer(r)
		if proof := q.Get("appsecret_proof"); proof != "" {
			mac := hmac.New(sha256.New, []byte(fbAppSecret))
			mac.Write([]byte(token))
			if proof != hex.EncodeToString(mac.Sum(nil)) {
				graphError(w)
				return
			}
		}
		switch {
		case token == "good", token == "other-app":
			writeJSON(w, http.StatusOK, map[string]any{"id": "fb-1", "name": "Grace Hopper", "email": "Grace@Example.com"})
		case token == "no-email":
			writeJSON(w, http.StatusOK, map[string]any{"id": "fb-2", "name": "No Mail"})
		case strings.HasPrefix(token, "slow"):
			hang(r)
			writeJSON(w, http.StatusOK, map[string]any{"id": "fb-3", "email": "slow@example.com"})
		default:
			graphError(w)
		}
	})

	gs.Server = httptest.NewServer(mux)
	t.Cleanup(gs.Close)
	return gs
}

func TestFacebookVerifier(t *testing.T) {
	t.Parallel()

	t.Run("with app credentials", func(t *testing.T) {
		t.Parallel()
		gs := newGraphServer(t)
		verifier := auth.NewFacebookVerifier(
			auth.WithFacebookGraphURL(gs.URL),
			auth.WithFacebookApp(fbAppID, fbAppSecret),
			auth.WithFacebookTimeout(300*time.Millisecond),
		)
		assert.Equal(t, auth.ProviderFacebook, verifier.Provider())
		ctx := context.Background()

		claim, err := verifier.Verify(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "fb-1", claim.Subject)
		assert.Equal(t, "grace@example.com", claim.Email)
		assert.Equal(t, "Grace Hopper", claim.DisplayName)

		_, err = verifier.Verify(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, int32(1), gs.tokenCalls.Load(), "app token should be cached")

		_, err = verifier.Verify(ctx, "other-app")
		require.ErrorIs(t, err, auth.ErrVerification)
		require.ErrorIs(t, err, auth.ErrAudienceMismatch)

		_, err = verifier.Verify(ctx, "revoked")
		require.ErrorIs(t, err, auth.ErrVerification)
		require.ErrorIs(t, err, auth.ErrProviderRejected)

		_, err = verifier.Verify(ctx, "no-email")
		require.ErrorIs(t, err, auth.ErrMissingEmail)

		_, err = verifier.Verify(ctx, "slow")
		require.ErrorIs(t, err, auth.ErrVerification)

		_, err = verifier.Verify(ctx, "  ")
		require.ErrorIs(t, err, auth.ErrVerification)
	})

	t.Run("without app credentials", func(t *testing.T) {
		t.Parallel()
		gs := newGraphServer(t)
		verifier := auth.NewFacebookVerifier(auth.WithFacebookGraphURL(gs.URL))

		claim, err := verifier.Verify(context.Background(), "good")
		require.NoError(t, err)
		assert.Equal(t, "grace@example.com", claim.Email)
		assert.Zero(t, gs.tokenCalls.Load())

		_, err = verifier.Verify(context.Background(), "unknown")
		require.ErrorIs(t, err, auth.ErrProviderRejected)
	})

	t.Run("unreachable graph api", func(t *testing.T) {
		t.Parallel()
		gs := newGraphServer(t)
		url := gs.URL
		gs.Close()

		verifier := auth.NewFacebookVerifier(auth.WithFacebookGraphURL(url))
		_, err := verifier.Verify(context.Background(), "good")
		require.ErrorIs(t, err, auth.ErrVerification)
	})
}

func TestFacebookVerifier_TokensStayOutOfErrors(t *testing.T) {
	t.Parallel()

	const userToken = "slow-EAAB-user-token-123"

	for _, tc := range []struct {
		name      string
		hangDebug bool
		opts      []auth.FacebookOption
	}{
		{name: "profile call times out"},
		{name: "introspection times out", hangDebug: true, opts: []auth.FacebookOption{auth.WithFacebookApp(fbAppID, fbAppSecret)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gs := newGraphServer(t)
			gs.hangDebug.Store(tc.hangDebug)

			opts := append([]auth.FacebookOption{
				auth.WithFacebookGraphURL(gs.URL),
				auth.WithFacebookTimeout(100 * time.Millisecond),
			}, tc.opts...)
			verifier := auth.NewFacebookVerifier(opts...)

			buf := &syncBuffer{}
			env := newTestEnv(t, []auth.IdentityVerifier{verifier},
				auth.WithLogger(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

			_, err := env.svc.ThirdPartySignIn(context.Background(), auth.ProviderFacebook, userToken)
			require.ErrorIs(t, err, auth.ErrVerification)
			assert.NotContains(t, err.Error(), userToken)
			assert.NotContains(t, err.Error(), fbAppToken)
			assert.NotContains(t, buf.String(), userToken)
			assert.NotContains(t, buf.String(), fbAppToken)
			assert.NotContains(t, buf.String(), fbAppSecret)
		})
	}
}

func TestFacebookVerifier_AppTokenFollowsCallerContext(t *testing.T) {
	t.Parallel()
	gs := newGraphServer(t)
	verifier := auth.NewFacebookVerifier(
		auth.WithFacebookGraphURL(gs.URL),
		auth.WithFacebookApp(fbAppID, fbAppSecret),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := verifier.Verify(ctx, "good")
	require.ErrorIs(t, err, auth.ErrVerification)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gs.tokenCalls.Load())

	_, err = verifier.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, int32(1), gs.tokenCalls.Load())
}
