package auth

import (
	"context"

	"github.com/google/uuid"
)

// AccountDirectory stores accounts. Implementations must enforce email
// uniqueness atomically, typically with a unique index, and report a
// collision as ErrDuplicateAccount.
type AccountDirectory interface {
	// FindByEmail returns ErrNotFound when no account has the email.
	FindByEmail(ctx context.Context, email string) (Account, error)
	// FindByID returns ErrNotFound when no account has the id.
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	// Create assigns the id and timestamps and stores the account.
	Create(ctx context.Context, fields NewAccount) (Account, error)
	// UpdateFields changes only the non-nil fields of patch and returns the
	// updated account. ErrNotFound when id is absent, ErrDuplicateAccount when
	// a new email collides.
	UpdateFields(ctx context.Context, id uuid.UUID, patch AccountPatch) (Account, error)
}
