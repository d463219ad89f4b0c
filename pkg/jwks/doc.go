// Package jwks resolves signing keys from a remote JSON Web Key Set by key ID.
//
// Keys are cached per kid for a bounded time. A kid that is not in the cache
// triggers a refetch of the whole set, so keys added by the provider during
// rotation become visible on first use, and keys the provider removed drop out
// at the next refetch or once their cache entry expires. Refetches are rate limited to keep a flood of
// tokens with unknown kids from turning into a flood of outbound requests.
//
//	keys := jwks.New("https://appleid.apple.com/auth/keys", jwks.WithTimeout(5*time.Second))
//	pub, err := keys.Key(ctx, kid)
package jwks
