package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekeeper/pkg/jwt"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/validator"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 64
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(subject string) (jwt.Token, error)
	Verify(token string) (jwt.Claims, error)
}

var _ TokenIssuer = (*jwt.Service)(nil)

// RegisterInput is the input of Register.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// ProfileUpdate is the input of UpdateProfile. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
	Image    *string
}

// Service is the authentication core.
type Service struct {
	accounts  AccountDirectory
	hasher    PasswordHasher
	tokens    TokenIssuer
	verifiers *Verifiers
	logger    *slog.Logger

	passwordStrength validator.PasswordStrengthConfig
	hookTimeout      time.Duration
	beforeLogin      func(context.Context, string) error
	afterLogin       func(context.Context, Account) error
	afterRegister    func(context.Context, Account) error

	// dummyDigest is checked when no account matches, so that an unknown
	// email costs the same as a wrong password.
	dummyDigest func() (string, error)
}

func NewService(accounts AccountDirectory, hasher PasswordHasher, tokens TokenIssuer, verifiers *Verifiers, opts ...Option) *Service {
	s := &Service{
		accounts:         accounts,
		hasher:           hasher,
		tokens:           tokens,
		verifiers:        verifiers,
		logger:           logger.Discard(),
		passwordStrength: validator.DefaultPasswordStrength(),
		hookTimeout:      10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))
	s.dummyDigest = sync.OnceValues(func() (string, error) {
		return s.hasher.Hash(context.Background(), uuid.NewString())
	})
	return s
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.MinLenString("username", username, usernameMinLen),
		validator.MaxLenString("username", username, usernameMaxLen),
		validator.StrongPassword("password", in.Password, s.passwordStrength),
		validator.NotCommonPassword("password", in.Password),
	); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	switch _, err := s.accounts.FindByEmail(ctx, email); {
	case err == nil:
		return Session{}, ErrDuplicateAccount
	case !errors.Is(err, ErrNotFound):
		return Session{}, fmt.Errorf("failed to look up account: %w", err)
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, NewAccount{
		Email:        email,
		Username:     username,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			return Session{}, ErrDuplicateAccount
		}
		return Session{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", logger.AccountID(acc.ID), logger.Event("register"))

	sess, err := s.startSession(ctx, acc)
	if err != nil {
		return Session{}, err
	}

	s.runHook(ctx, "afterRegister", s.afterRegister, acc)
	return sess, nil
}

// Login checks a password and signs the account in. Unknown email, missing
// password credential and wrong password all return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)

	if s.beforeLogin != nil {
		if err := s.beforeLogin(ctx, email); err != nil {
			return Session{}, err
		}
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.burnVerify(ctx, password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if !acc.HasPassword() {
		s.burnVerify(ctx, password)
		return Session{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, acc.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "password verification failed", logger.AccountID(acc.ID), logger.Error(err))
		return Session{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}

	sess, err := s.startSession(ctx, acc)
	if err != nil {
		return Session{}, err
	}

	s.runHook(ctx, "afterLogin", s.afterLogin, acc)
	return sess, nil
}

// ThirdPartySignIn verifies a provider token and signs in the account with
// the verified email, creating it on first sight. An existing account is
// reused untouched.
func (s *Service) ThirdPartySignIn(ctx context.Context, provider Provider, token string) (Session, error) {
	verifier, err := s.verifiers.Get(provider)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	claim, err := verifier.Verify(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "provider token rejected", logger.Provider(provider), logger.Error(err))
		if !errors.Is(err, ErrVerification) {
			err = verificationError(provider, err)
		}
		return Session{}, err
	}

	acc, created, err := s.findOrCreate(ctx, provider, claim)
	if err != nil {
		return Session{}, err
	}
	if created {
		s.logger.InfoContext(ctx, "account created from provider identity",
			logger.AccountID(acc.ID), logger.Provider(provider), logger.Event("third_party_signup"))
	}

	return s.startSession(ctx, acc)
}

func (s *Service) findOrCreate(ctx context.Context, provider Provider, claim Claim) (Account, bool, error) {
	acc, err := s.accounts.FindByEmail(ctx, claim.Email)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, false, fmt.Errorf("failed to look up account: %w", err)
	}

	acc, err = s.accounts.Create(ctx, NewAccount{
		Email:    claim.Email,
		Username: claim.DisplayName,
		Provider: provider,
	})
	if err == nil {
		return acc, true, nil
	}
	if !errors.Is(err, ErrDuplicateAccount) {
		return Account{}, false, fmt.Errorf("failed to create account: %w", err)
	}

	// A concurrent sign-in created the account first: use it.
	acc, err = s.accounts.FindByEmail(ctx, claim.Email)
	if err != nil {
		return Account{}, false, fmt.Errorf("failed to look up account after concurrent create: %w", err)
	}
	return acc, false, nil
}

// Logout clears the session reference. A missing account is not an error.
func (s *Service) Logout(ctx context.Context, id uuid.UUID) error {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if acc.SessionRef == "" {
		return nil
	}

	cleared := ""
	if _, err := s.accounts.UpdateFields(ctx, id, AccountPatch{SessionRef: &cleared}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged out", logger.AccountID(id), logger.Event("logout"))
	return nil
}

// Authenticate resolves a session token to its account. The token must be
// valid and still be the account's current session.
func (s *Service) Authenticate(ctx context.Context, token string) (Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Account{}, ErrInvalidToken
	}

	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidToken
		}
		return Account{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if acc.SessionRef == "" || subtle.ConstantTimeCompare([]byte(acc.SessionRef), []byte(claims.ID)) != 1 {
		return Account{}, ErrInvalidToken
	}
	return acc, nil
}

// Account returns the account with id or ErrNotFound.
func (s *Service) Account(ctx context.Context, id uuid.UUID) (Account, error) {
	acc, err := s.accounts.FindByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Account{}, fmt.Errorf("failed to look up account: %w", err)
	}
	return acc, err
}

// UpdateProfile applies a partial profile update. A new password is hashed,
// a new email is normalized and must stay unique.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (Account, error) {
	var patch AccountPatch
	var rules []validator.Rule

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		patch.Username = &username
		rules = append(rules,
			validator.MinLenString("username", username, usernameMinLen),
			validator.MaxLenString("username", username, usernameMaxLen),
		)
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		patch.Email = &email
		rules = append(rules, validator.ValidEmail("email", email))
	}
	if upd.Password != nil {
		rules = append(rules,
			validator.StrongPassword("password", *upd.Password, s.passwordStrength),
			validator.NotCommonPassword("password", *upd.Password),
		)
	}
	if upd.Image != nil {
		image := strings.TrimSpace(*upd.Image)
		patch.Image = &image
		rules = append(rules, validator.When(image != "", validator.ValidURL("image", image))...)
	}

	if err := validator.Apply(rules...); err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if upd.Password != nil {
		digest, err := s.hasher.Hash(ctx, *upd.Password)
		if err != nil {
			return Account{}, fmt.Errorf("failed to hash password: %w", err)
		}
		patch.PasswordHash = &digest
	}

	acc, err := s.accounts.UpdateFields(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateAccount) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("failed to update account: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", logger.AccountID(id), logger.Event("profile_update"))
	return acc, nil
}

// startSession issues a token and records its ID as the account's session reference.
func (s *Service) startSession(ctx context.Context, acc Account) (Session, error) {
	tok, err := s.tokens.Issue(acc.ID.String())
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue token: %w", err)
	}

	ref := tok.ID
	if _, err := s.accounts.UpdateFields(ctx, acc.ID, AccountPatch{SessionRef: &ref}); err != nil {
		return Session{}, fmt.Errorf("failed to record session: %w", err)
	}

	return Session{
		Token:     tok.Value,
		AccountID: acc.ID,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

func (s *Service) burnVerify(ctx context.Context, password string) {
	digest, err := s.dummyDigest()
	if err != nil {
		return
	}
	_, _ = s.hasher.Verify(ctx, password, digest)
}

// runHook runs hook on its own goroutine, detached from ctx cancellation but
// keeping its values.
func (s *Service) runHook(ctx context.Context, name string, hook func(context.Context, Account) error, acc Account) {
	if hook == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error(name+" hook panicked", logger.AccountID(acc.ID), logger.Panic(r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.hookTimeout)
		defer cancel()

		if err := hook(ctx, acc); err != nil {
			s.logger.ErrorContext(ctx, name+" hook failed", logger.AccountID(acc.ID), logger.Error(err))
		}
	}()
}
