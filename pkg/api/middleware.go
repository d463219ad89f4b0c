package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
)

type accountCtxKey struct{}

// WithAccount stores the authenticated account in ctx.
func WithAccount(ctx context.Context, acc auth.Account) context.Context {
	return context.WithValue(ctx, accountCtxKey{}, acc)
}

// AccountFromContext returns the account stored by the auth middleware.
func AccountFromContext(ctx context.Context) (auth.Account, bool) {
	acc, ok := ctx.Value(accountCtxKey{}).(auth.Account)
	return acc, ok
}

// authenticate resolves the bearer token to a live account session.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := a.extractToken(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gatekeeper"`)
			a.writeError(w, r, fmt.Errorf("%w: %w", auth.ErrInvalidToken, err))
			return
		}

		acc, err := a.svc.Authenticate(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gatekeeper", error="invalid_token"`)
			a.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		a.logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status_code", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			logger.Duration(time.Since(start)),
		)
	})
}
