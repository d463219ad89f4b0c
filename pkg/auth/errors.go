package auth

import "errors"

// Flow errors. Handlers map these to client responses.
var (
	ErrValidation         = errors.New("invalid input")
	ErrDuplicateAccount   = errors.New("account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("account not found")
	ErrVerification       = errors.New("external identity verification failed")
	ErrCredential         = errors.New("credential processing failed")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrForbidden          = errors.New("forbidden")
)

// Provider errors. Verification failures wrap them together with ErrVerification.
var (
	ErrUnknownProvider  = errors.New("unknown identity provider")
	ErrMissingEmail     = errors.New("provider did not return an email")
	ErrUnverifiedEmail  = errors.New("email not verified by provider")
	ErrAudienceMismatch = errors.New("token was issued for another client")
	ErrProviderRejected = errors.New("provider rejected the token")
	ErrMissingClientID  = errors.New("missing provider client id")
	ErrMissingKeyID     = errors.New("token header has no key id")
)
