package redis

import "errors"

var (
	ErrNoURL       = errors.New("redis: connection url is empty")
	ErrInvalidURL  = errors.New("redis: invalid connection url")
	ErrNotReady    = errors.New("redis: server not ready")
	ErrUnavailable = errors.New("redis: ping failed")
)
