package main

import (
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/httpserver"
	"github.com/dmitrymomot/gatekeeper/pkg/mongo"
	"github.com/dmitrymomot/gatekeeper/pkg/redis"
)

// appConfig is the full service configuration read from the environment.
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	HTTP   httpserver.Config
	Mongo  mongo.Config
	Redis  redis.Config
	Auth   authConfig
	Limits limitsConfig
}

type authConfig struct {
	JWTSecret         string        `env:"JWT_SECRET,required,unset"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"24h"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"gatekeeper"`
	GoogleClientID    string        `env:"GOOGLE_CLIENT_ID,required"`
	FacebookAppID     string        `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret string        `env:"FACEBOOK_APP_SECRET,unset"`
	AppleClientIDs    []string      `env:"APPLE_CLIENT_IDS" envSeparator:","`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	HookTimeout       time.Duration `env:"AUTH_HOOK_TIMEOUT" envDefault:"10s"`
}

type limitsConfig struct {
	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`

	// Requests per minute per client address on /auth routes. Zero disables.
	HTTPRateLimit int `env:"HTTP_RATE_LIMIT" envDefault:"60"`
}
