package ratelimiter

import (
	"net"
	"net/http"
	"strconv"
)

// KeyFunc derives the limiter key of a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// RemoteAddr keys requests by the client host in r.RemoteAddr, without
// the port. Put it behind a real-IP middleware when running behind a proxy.
func RemoteAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type (
	// DeniedHandler writes the response for a request over its limit.
	DeniedHandler func(w http.ResponseWriter, r *http.Request, res Result)
	// ErrorHandler writes the response when the limiter itself fails.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
)

type middlewareOptions struct {
	denied  DeniedHandler
	failure ErrorHandler
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareOptions)

// WithDeniedHandler replaces the plain-text 429 response. Rate limit
// headers are already set when it runs.
func WithDeniedHandler(fn DeniedHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.denied = fn
		}
	}
}

// WithErrorHandler replaces the plain-text 500 response on store failures.
func WithErrorHandler(fn ErrorHandler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.failure = fn
		}
	}
}

// Middleware takes one token per request from limiter under key(r) and
// reports the balance in X-RateLimit-* headers. Denied requests get a
// Retry-After header and never reach next.
func Middleware(limiter RateLimiter, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{
		denied: func(w http.ResponseWriter, _ *http.Request, _ Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		failure: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), k)
			if err != nil {
				o.failure(w, r, err)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if secs := RetryAfterSeconds(res.RetryAfter); secs > 0 {
					h.Set("Retry-After", strconv.Itoa(secs))
				}
				o.denied(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
