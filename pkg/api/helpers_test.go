package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/gatekeeper/pkg/api"
	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/jwt"
)

const strongPassword = "Corr3ct-Horse!Battery"

type stubVerifier struct {
	provider auth.Provider
	claim    auth.Claim
}

func (v stubVerifier) Provider() auth.Provider { return v.provider }

func (v stubVerifier) Verify(_ context.Context, token string) (auth.Claim, error) {
	if token != "valid-provider-token" {
		return auth.Claim{}, auth.ErrVerification
	}
	return v.claim, nil
}

// newRealAPI wires the API to an in-memory auth.Service.
func newRealAPI(t *testing.T, opts ...api.Option) http.Handler {
	t.Helper()
	tokens, err := jwt.NewFromString("api-test-signing-key", jwt.WithTTL(time.Hour))
	require.NoError(t, err)

	google := stubVerifier{
		provider: auth.ProviderGoogle,
		claim:    auth.Claim{Subject: "g-1", Email: "gina@example.com", DisplayName: "Gina"},
	}
	svc := auth.NewService(
		auth.NewMemoryDirectory(),
		auth.NewBcryptHasher(auth.WithBcryptCost(bcrypt.MinCost)),
		tokens,
		auth.NewVerifiers(google),
	)
	return api.New(svc, opts...).Routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *api.ErrorDetail `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &v))
	return v
}

func register(t *testing.T, h http.Handler, email string) api.SessionView {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"username": "tester",
		"password": strongPassword,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[api.SessionView](t, rec)
}
