package auth_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.Account), args.Error(1)
}

func (m *MockAccountDirectory) FindByID(ctx context.Context, id uuid.UUID) (auth.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(auth.Account), args.Error(1)
}

func (m *MockAccountDirectory) Create(ctx context.Context, fields auth.NewAccount) (auth.Account, error) {
	args := m.Called(ctx, fields)
	return args.Get(0).(auth.Account), args.Error(1)
}

func (m *MockAccountDirectory) UpdateFields(ctx context.Context, id uuid.UUID, patch auth.AccountPatch) (auth.Account, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(auth.Account), args.Error(1)
}
