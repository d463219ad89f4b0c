package jwks

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	maxKeySetSize = 1 << 20
	cacheSize     = 64
)

// KeySet is a kid-keyed cache in front of a remote JWKS endpoint.
// It is safe for concurrent use.
type KeySet struct {
	url        string
	client     *http.Client
	cache      *expirable.LRU[string, crypto.PublicKey]
	minRefresh time.Duration
	now        func() time.Time

	mu        sync.Mutex
	lastFetch time.Time
}

// Option configures a KeySet.
type Option func(*KeySet)

// WithHTTPClient sets the client used to fetch the key set.
func WithHTTPClient(c *http.Client) Option {
	return func(s *KeySet) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds every fetch of the key set.
func WithTimeout(d time.Duration) Option {
	return func(s *KeySet) {
		if d > 0 {
			s.client = &http.Client{Timeout: d, Transport: s.client.Transport}
		}
	}
}

// WithCacheTTL sets how long a fetched key stays usable without a refetch.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *KeySet) {
		if ttl > 0 {
			s.cache = expirable.NewLRU[string, crypto.PublicKey](cacheSize, nil, ttl)
		}
	}
}

// WithMinRefreshInterval sets the minimum time between two fetches triggered
// by unknown key IDs. Zero disables the limit.
func WithMinRefreshInterval(d time.Duration) Option {
	return func(s *KeySet) {
		if d >= 0 {
			s.minRefresh = d
		}
	}
}

// New creates a KeySet for the JWKS document at url. Nothing is fetched until
// the first lookup.
func New(url string, opts ...Option) *KeySet {
	s := &KeySet{
		url:        url,
		client:     &http.Client{Timeout: 5 * time.Second},
		cache:      expirable.NewLRU[string, crypto.PublicKey](cacheSize, nil, time.Hour),
		minRefresh: 10 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the public key for kid, fetching the key set when kid is not cached.
func (s *KeySet) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	if kid == "" {
		return nil, ErrMissingKeyID
	}
	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}
	if !s.lastFetch.IsZero() && s.now().Sub(s.lastFetch) < s.minRefresh {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok := s.cache.Get(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
}

// refresh fetches the key set and replaces the cached keys. Callers hold s.mu.
func (s *KeySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxKeySetSize)).Decode(&set); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKeys, err)
	}

	s.lastFetch = s.now()
	s.cache.Purge()
	for _, k := range set.Keys {
		if k.KeyID == "" || (k.Use != "" && k.Use != "sig") || !k.Valid() {
			continue
		}
		pub := k.Public()
		if pub.Key == nil {
			continue
		}
		s.cache.Add(k.KeyID, pub.Key)
	}
	return nil
}
