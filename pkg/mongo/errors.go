package mongo

import "errors"

var (
	ErrConnect     = errors.New("mongo: connect")
	ErrUnavailable = errors.New("mongo: ping failed")
	ErrIndex       = errors.New("mongo: create index")
)
