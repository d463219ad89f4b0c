package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process AccountDirectory. Email uniqueness is
// enforced under a single lock, which gives the same one-winner behaviour
// as a unique index. Suitable for tests and single-instance development.
type MemoryDirectory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:    make(map[uuid.UUID]Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

var _ AccountDirectory = (*MemoryDirectory)(nil)

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return d.byID[id], nil
}

func (d *MemoryDirectory) FindByID(_ context.Context, id uuid.UUID) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	acc, ok := d.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (d *MemoryDirectory) Create(ctx context.Context, fields NewAccount) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	email := NormalizeEmail(fields.Email)
	if email == "" {
		return Account{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if fields.PasswordHash == "" && fields.Provider == "" {
		return Account{}, fmt.Errorf("%w: account needs a password or a provider", ErrValidation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byEmail[email]; exists {
		return Account{}, ErrDuplicateAccount
	}

	now := d.now().UTC()
	acc := Account{
		ID:           uuid.New(),
		Email:        email,
		Username:     fields.Username,
		PasswordHash: fields.PasswordHash,
		Provider:     fields.Provider,
		Image:        fields.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.byID[acc.ID] = acc
	d.byEmail[email] = acc.ID
	return acc, nil
}

func (d *MemoryDirectory) UpdateFields(ctx context.Context, id uuid.UUID, patch AccountPatch) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	acc, ok := d.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if patch.IsEmpty() {
		return acc, nil
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		patch.Email = &email
		if owner, exists := d.byEmail[email]; exists && owner != id {
			return Account{}, ErrDuplicateAccount
		}
	}

	prevEmail := acc.Email
	acc = patch.Apply(acc)
	acc.UpdatedAt = d.now().UTC()

	if acc.Email != prevEmail {
		delete(d.byEmail, prevEmail)
		d.byEmail[acc.Email] = id
	}
	d.byID[id] = acc
	return acc, nil
}

// Len returns the number of stored accounts.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
