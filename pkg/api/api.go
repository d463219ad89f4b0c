package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/httpserver"
	"github.com/dmitrymomot/gatekeeper/pkg/jwt"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/ratelimiter"
)

// AccountService is the part of auth.Service the HTTP layer depends on.
type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error)
	Login(ctx context.Context, email, password string) (auth.Session, error)
	ThirdPartySignIn(ctx context.Context, provider auth.Provider, token string) (auth.Session, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	Authenticate(ctx context.Context, token string) (auth.Account, error)
	Account(ctx context.Context, id uuid.UUID) (auth.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd auth.ProfileUpdate) (auth.Account, error)
}

var _ AccountService = (*auth.Service)(nil)

// API serves the account endpoints.
type API struct {
	svc              AccountService
	logger           *slog.Logger
	metrics          *Metrics
	extractToken     jwt.TokenExtractorFunc
	limiter          ratelimiter.RateLimiter
	readiness        []httpserver.Check
	readinessTimeout time.Duration
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics sets the collectors served on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(a *API) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithTokenExtractor replaces the bearer header extractor.
func WithTokenExtractor(fn jwt.TokenExtractorFunc) Option {
	return func(a *API) {
		if fn != nil {
			a.extractToken = fn
		}
	}
}

// WithRateLimiter limits the /auth routes per client address.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(a *API) {
		a.limiter = l
	}
}

// WithReadinessChecks sets the probes run by /health/ready.
func WithReadinessChecks(timeout time.Duration, checks ...httpserver.Check) Option {
	return func(a *API) {
		a.readinessTimeout = timeout
		a.readiness = append(a.readiness, checks...)
	}
}

// New creates the API on top of svc.
func New(svc AccountService, opts ...Option) *API {
	a := &API{
		svc:              svc,
		logger:           logger.Discard(),
		extractToken:     jwt.BearerTokenExtractor,
		readinessTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = NewMetrics()
	}
	a.logger = a.logger.With(logger.Component("api"))
	return a
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(a.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusNotFound, Envelope{Error: &ErrorDetail{Code: CodeNotFound, Message: "Route not found"}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusMethodNotAllowed, Envelope{Error: &ErrorDetail{Code: "method_not_allowed", Message: "Method not allowed"}})
	})

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(a.logger, a.readinessTimeout, a.readiness...))
	r.Handle("/metrics", a.metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		if a.limiter != nil {
			r.Use(ratelimiter.Middleware(a.limiter, ratelimiter.RemoteAddr,
				ratelimiter.WithDeniedHandler(a.rateLimited),
				ratelimiter.WithErrorHandler(a.writeError),
			))
		}
		r.Post("/register", a.handle(a.register))
		r.Post("/login", a.handle(a.login))
		r.With(a.authenticate).Post("/logout", a.handle(a.logout))
		r.Post("/{provider}", a.handle(a.thirdPartySignIn))
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(a.authenticate)
		r.Get("/me", a.handle(a.me))
		r.Get("/{id}", a.handle(a.account))
		r.Patch("/{id}", a.handle(a.updateProfile))
	})

	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) (Response, error)

func (a *API) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(w, r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if err := resp.Render(w, r); err != nil {
			a.logger.ErrorContext(r.Context(), "failed to render response",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Error(err),
			)
		}
	}
}

func (a *API) rateLimited(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
	a.logger.WarnContext(r.Context(), "rate limit exceeded",
		logger.RequestID(middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)
	_ = writeJSON(w, http.StatusTooManyRequests, Envelope{Error: &ErrorDetail{
		Code:    CodeTooManyRequests,
		Message: "Too many requests, try again later",
	}})
}
