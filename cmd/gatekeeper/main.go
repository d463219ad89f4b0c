// Command gatekeeper runs the account service: password and third-party
// sign-in, session tokens and profile management over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/api"
	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/config"
	"github.com/dmitrymomot/gatekeeper/pkg/httpserver"
	"github.com/dmitrymomot/gatekeeper/pkg/jwks"
	"github.com/dmitrymomot/gatekeeper/pkg/jwt"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/mongo"
	"github.com/dmitrymomot/gatekeeper/pkg/ratelimiter"
	"github.com/dmitrymomot/gatekeeper/pkg/redis"
)

const serviceName = "gatekeeper"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.New().Error("gatekeeper exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithLevelString(cfg.LogLevel),
	)
	slog.SetDefault(log)

	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() { _ = db.Client().Disconnect(context.WithoutCancel(ctx)) }()

	accounts, err := mongo.NewAccountDirectory(ctx, db)
	if err != nil {
		return err
	}
	checks := []httpserver.Check{{Name: "mongo", Fn: mongo.Healthcheck(db.Client())}}

	store, closeStore, redisCheck, err := newLimiterStore(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}

	guard, err := ratelimiter.NewLoginGuard(store, cfg.Limits.LoginMaxAttempts, cfg.Limits.LoginWindow)
	if err != nil {
		return fmt.Errorf("login guard: %w", err)
	}

	tokens, err := jwt.NewFromString(cfg.Auth.JWTSecret,
		jwt.WithTTL(cfg.Auth.JWTTTL),
		jwt.WithIssuer(cfg.Auth.JWTIssuer),
	)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	verifiers, err := newVerifiers(cfg.Auth, log)
	if err != nil {
		return err
	}

	svc := auth.NewService(
		accounts,
		auth.NewBcryptHasher(auth.WithBcryptCost(cfg.Auth.BcryptCost)),
		tokens,
		verifiers,
		auth.WithLogger(log),
		auth.WithHookTimeout(cfg.Auth.HookTimeout),
		auth.WithBeforeLogin(guard.Check),
		auth.WithAfterLogin(func(ctx context.Context, acc auth.Account) error {
			return guard.Reset(ctx, acc.Email)
		}),
	)

	apiOpts := []api.Option{
		api.WithLogger(log),
		api.WithMetrics(api.NewMetrics()),
		api.WithReadinessChecks(2*time.Second, checks...),
	}
	if n := cfg.Limits.HTTPRateLimit; n > 0 {
		limiter, err := ratelimiter.NewBucket(store, ratelimiter.Policy{
			Capacity:       n,
			RefillRate:     n,
			RefillInterval: time.Minute,
		})
		if err != nil {
			return fmt.Errorf("http rate limiter: %w", err)
		}
		apiOpts = append(apiOpts, api.WithRateLimiter(limiter))
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, api.New(svc, apiOpts...).Routes())
}

// newLimiterStore uses Redis when configured so limits hold across
// replicas, and an in-process store otherwise.
func newLimiterStore(ctx context.Context, cfg redis.Config, log *slog.Logger) (ratelimiter.Store, func(), *httpserver.Check, error) {
	if !cfg.Enabled() {
		log.WarnContext(ctx, "REDIS_URL is not set, rate limits are kept per process")
		ms := ratelimiter.NewMemoryStore()
		return ms, func() { _ = ms.Close() }, nil, nil
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	check := &httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)}
	return ratelimiter.NewRedisStore(client), func() { _ = client.Close() }, check, nil
}

// newVerifiers registers a verifier per configured provider. Apple is
// enabled only when at least one client ID is set.
func newVerifiers(cfg authConfig, log *slog.Logger) (*auth.Verifiers, error) {
	google, err := auth.NewGoogleVerifier(cfg.GoogleClientID, auth.WithGoogleTimeout(cfg.ProviderTimeout))
	if err != nil {
		return nil, fmt.Errorf("google verifier: %w", err)
	}

	fbOpts := []auth.FacebookOption{auth.WithFacebookTimeout(cfg.ProviderTimeout)}
	if cfg.FacebookAppID != "" && cfg.FacebookAppSecret != "" {
		fbOpts = append(fbOpts, auth.WithFacebookApp(cfg.FacebookAppID, cfg.FacebookAppSecret))
	} else {
		log.Warn("facebook app credentials not set, tokens are not checked against an app id")
	}

	verifiers := []auth.IdentityVerifier{google, auth.NewFacebookVerifier(fbOpts...)}

	if len(cfg.AppleClientIDs) > 0 {
		keys := jwks.New(auth.AppleKeysURL, jwks.WithTimeout(cfg.ProviderTimeout))
		verifiers = append(verifiers, auth.NewAppleVerifier(keys,
			auth.WithAppleAudiences(cfg.AppleClientIDs...),
			auth.WithAppleTimeout(cfg.ProviderTimeout),
		))
	} else {
		log.Warn("APPLE_CLIENT_IDS not set, sign in with apple is disabled")
	}

	registry := auth.NewVerifiers(verifiers...)
	log.Info("identity providers enabled", slog.Any("providers", registry.Providers()))
	return registry, nil
}
