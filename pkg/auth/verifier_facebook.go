package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	facebookGraphURL   = "https://graph.facebook.com"
	facebookMaxBody    = 1 << 20
	facebookProfileFld = "id,name,email"
)

// FacebookVerifier treats the token as an opaque user access token and asks
// the Graph API who it belongs to.
//
// With an app secret configured every call carries appsecret_proof. With both
// app ID and secret configured the token is first introspected through
// /debug_token using an app access token, and tokens minted for other apps
// are rejected.
type FacebookVerifier struct {
	graphURL  string
	appID     string
	appSecret string
	client    *http.Client
	app       *clientcredentials.Config

	mu       sync.Mutex
	appToken *oauth2.Token
}

// FacebookOption configures a FacebookVerifier.
type FacebookOption func(*FacebookVerifier)

// WithFacebookApp sets the app credentials used for appsecret_proof and token introspection.
func WithFacebookApp(appID, appSecret string) FacebookOption {
	return func(v *FacebookVerifier) {
		v.appID = appID
		v.appSecret = appSecret
	}
}

// WithFacebookGraphURL overrides the Graph API base URL.
func WithFacebookGraphURL(u string) FacebookOption {
	return func(v *FacebookVerifier) {
		if u != "" {
			v.graphURL = strings.TrimRight(u, "/")
		}
	}
}

// WithFacebookHTTPClient sets the client used for Graph API calls.
func WithFacebookHTTPClient(c *http.Client) FacebookOption {
	return func(v *FacebookVerifier) {
		if c != nil {
			v.client = c
		}
	}
}

// WithFacebookTimeout bounds every Graph API call.
func WithFacebookTimeout(d time.Duration) FacebookOption {
	return func(v *FacebookVerifier) {
		if d > 0 {
			v.client = &http.Client{Timeout: d, Transport: v.client.Transport}
		}
	}
}

func NewFacebookVerifier(opts ...FacebookOption) *FacebookVerifier {
	v := &FacebookVerifier{
		graphURL: facebookGraphURL,
		client:   &http.Client{Timeout: DefaultProviderTimeout},
	}
	for _, opt := range opts {
		opt(v)
	}

	if v.appID != "" && v.appSecret != "" {
		v.app = &clientcredentials.Config{
			ClientID:     v.appID,
			ClientSecret: v.appSecret,
			TokenURL:     v.graphURL + "/oauth/access_token",
			AuthStyle:    oauth2.AuthStyleInParams,
		}
	}
	return v
}

var _ IdentityVerifier = (*FacebookVerifier)(nil)

func (f *FacebookVerifier) Provider() Provider { return ProviderFacebook }

func (f *FacebookVerifier) Verify(ctx context.Context, token string) (Claim, error) {
	if strings.TrimSpace(token) == "" {
		return Claim{}, verificationError(ProviderFacebook, ErrProviderRejected)
	}

	if f.app != nil {
		if err := f.introspect(ctx, token); err != nil {
			return Claim{}, verificationError(ProviderFacebook, err)
		}
	}

	q := url.Values{}
	q.Set("fields", facebookProfileFld)
	if f.appSecret != "" {
		q.Set("appsecret_proof", f.proof(token))
	}

	var profile struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := f.get(ctx, "/me", q, token, &profile); err != nil {
		return Claim{}, verificationError(ProviderFacebook, err)
	}
	if profile.ID == "" {
		return Claim{}, verificationError(ProviderFacebook, ErrProviderRejected)
	}

	return newClaim(ProviderFacebook, profile.ID, profile.Email, profile.Name)
}

// introspect checks that token is valid and was issued for this app.
func (f *FacebookVerifier) introspect(ctx context.Context, token string) error {
	appToken, err := f.appAccessToken(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("input_token", token)

	var debug struct {
		Data struct {
			AppID   string `json:"app_id"`
			IsValid bool   `json:"is_valid"`
		} `json:"data"`
	}
	if err := f.get(ctx, "/debug_token", q, appToken, &debug); err != nil {
		return err
	}
	if !debug.Data.IsValid {
		return ErrProviderRejected
	}
	if debug.Data.AppID != f.appID {
		return ErrAudienceMismatch
	}
	return nil
}

// appAccessToken returns the cached app token, fetching a new one on ctx
// when it is missing or expired.
func (f *FacebookVerifier) appAccessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appToken.Valid() {
		return f.appToken.AccessToken, nil
	}
	tok, err := f.app.Token(context.WithValue(ctx, oauth2.HTTPClient, f.client))
	if err != nil {
		return "", fmt.Errorf("app token: %w", err)
	}
	f.appToken = tok
	return tok.AccessToken, nil
}

// get calls the Graph API with accessToken as a bearer credential.
// Transport errors carry the path, never the query.
func (f *FacebookVerifier) get(ctx context.Context, path string, q url.Values, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.graphURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("graph %s: build request", path)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := f.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("graph %s %s: %w", uerr.Op, path, uerr.Err)
		}
		return fmt.Errorf("graph %s: %w", path, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, facebookMaxBody)
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if json.NewDecoder(body).Decode(&apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: %s (%s %d)", ErrProviderRejected, apiErr.Error.Message, apiErr.Error.Type, apiErr.Error.Code)
		}
		return fmt.Errorf("%w: unexpected status %d", ErrProviderRejected, resp.StatusCode)
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Join(ErrProviderRejected, err)
	}
	return nil
}

// proof computes appsecret_proof: hex HMAC-SHA256 of the token keyed by the app secret.
func (f *FacebookVerifier) proof(token string) string {
	mac := hmac.New(sha256.New, []byte(f.appSecret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
