package pool

import "errors"

var (
	// ErrPoolNotFound is returned for ids that were never created or were closed.
	ErrPoolNotFound = errors.New("connection pool not found")

	// ErrConnectionTimeout is returned when no connection frees up within ConnectionTimeout.
	ErrConnectionTimeout = errors.New("timed out waiting for a connection")
)
