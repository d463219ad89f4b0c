// Package ratelimiter provides token bucket rate limiting with in-memory and
// Redis storage, an HTTP middleware and a per-email login guard.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Policy{
//		Capacity:       60,
//		RefillRate:     60,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := limiter.Allow(ctx, "203.0.113.7")
//	if err != nil {
//		return err
//	}
//	if !result.Allowed() {
//		// wait result.RetryAfter
//	}
//
// A denied request does not consume tokens, so a client hammering a limited
// key regains access at the normal refill pace.
//
// # Storage
//
// MemoryStore keeps buckets in process and removes buckets untouched for
// an hour (WithStaleAfter). RedisStore runs the same algorithm in a Lua
// script so every instance shares one balance per key; keys expire once a
// bucket would be full again.
//
// # HTTP Middleware
//
//	mw := ratelimiter.Middleware(limiter, ratelimiter.RemoteAddr,
//		ratelimiter.WithDeniedHandler(writeTooManyRequests),
//	)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every limited request and Retry-After on denials.
// RemoteAddr keys by client host; requests whose key is empty pass through.
//
// # Login Guard
//
// LoginGuard allows a number of password attempts per email within a
// window. Check returns a *LimitError, matching ErrTooManyAttempts, once the
// allowance is spent; Reset clears it after a successful login.
//
//	guard, _ := ratelimiter.NewLoginGuard(store, 5, 15*time.Minute)
//	if err := guard.Check(ctx, email); err != nil {
//		return err
//	}
package ratelimiter
