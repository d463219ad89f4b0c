package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Provider identifies an external identity system.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderApple    Provider = "apple"
)

func (p Provider) String() string { return string(p) }

// Account is the persisted identity record.
type Account struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	Provider     Provider
	SessionRef   string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can log in with a password.
func (a Account) HasPassword() bool { return a.PasswordHash != "" }

// NewAccount holds the fields supplied when creating an account.
type NewAccount struct {
	Email        string
	Username     string
	PasswordHash string
	Provider     Provider
	Image        string
}

// AccountPatch is a partial update: nil fields keep their stored value.
type AccountPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	SessionRef   *string
	Image        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Email == nil && p.Username == nil && p.PasswordHash == nil && p.SessionRef == nil && p.Image == nil
}

// Apply returns a copy of a with the patch applied.
func (p AccountPatch) Apply(a Account) Account {
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	if p.SessionRef != nil {
		a.SessionRef = *p.SessionRef
	}
	if p.Image != nil {
		a.Image = *p.Image
	}
	return a
}

// Claim is a verified identity produced by an IdentityVerifier.
type Claim struct {
	Subject     string
	Email       string
	DisplayName string
}

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	AccountID uuid.UUID
	ExpiresAt time.Time
}

// NormalizeEmail trims and lower-cases an address. Every lookup and every
// stored email goes through it, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailLocalPart returns the part before '@', or the whole string when there is none.
func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// displayName picks a username from a provider name, falling back to the
// email local part.
func displayName(name, email string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return emailLocalPart(email)
	}
	return name
}
