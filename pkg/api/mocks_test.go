package api_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(auth.Session), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (auth.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(auth.Session), args.Error(1)
}

func (m *MockAccountService) ThirdPartySignIn(ctx context.Context, provider auth.Provider, token string) (auth.Session, error) {
	args := m.Called(ctx, provider, token)
	return args.Get(0).(auth.Session), args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockAccountService) Authenticate(ctx context.Context, token string) (auth.Account, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(auth.Account), args.Error(1)
}

func (m *MockAccountService) Account(ctx context.Context, id uuid.UUID) (auth.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(auth.Account), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, id uuid.UUID, upd auth.ProfileUpdate) (auth.Account, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(auth.Account), args.Error(1)
}
