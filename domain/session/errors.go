package session

import "errors"

// Domain errors for session operations.
var (
	// ErrNoData is returned when a session has no generated data yet.
	ErrNoData = errors.New("No data found. Please generate data first.")

	// ErrInvalidKey is returned when a key or session id is empty.
	ErrInvalidKey = errors.New("invalid session key")

	// ErrStoreFull is returned when the store is at capacity.
	ErrStoreFull = errors.New("session store is full")

	// ErrConnectionFailed is returned when the store backend is unreachable.
	ErrConnectionFailed = errors.New("session store connection failed")

	// ErrCorruptData is returned when stored data cannot be decoded.
	ErrCorruptData = errors.New("stored session data is corrupt")
)
