package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/validator"
)

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPasswordStrength replaces the default password policy.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) Option {
	return func(s *Service) { s.passwordStrength = cfg }
}

// WithBeforeLogin registers a synchronous hook called with the normalized
// email before credentials are checked. A non-nil error aborts the login and
// is returned unchanged, which lets throttling report its own error.
func WithBeforeLogin(fn func(ctx context.Context, email string) error) Option {
	return func(s *Service) { s.beforeLogin = fn }
}

// WithAfterLogin registers an asynchronous hook run after a successful
// password login. Errors and panics are logged.
func WithAfterLogin(fn func(ctx context.Context, acc Account) error) Option {
	return func(s *Service) { s.afterLogin = fn }
}

// WithAfterRegister registers an asynchronous hook run after registration.
func WithAfterRegister(fn func(ctx context.Context, acc Account) error) Option {
	return func(s *Service) { s.afterRegister = fn }
}

// WithHookTimeout bounds asynchronous hooks. Default 10s.
func WithHookTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.hookTimeout = d
		}
	}
}
