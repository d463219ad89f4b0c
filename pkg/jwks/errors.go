package jwks

import "errors"

var (
	ErrKeyNotFound  = errors.New("jwks: key not found")
	ErrFetchFailed  = errors.New("jwks: failed to fetch key set")
	ErrInvalidKeys  = errors.New("jwks: invalid key set")
	ErrMissingKeyID = errors.New("jwks: missing key id")
)
