package domain

import "errors"

var (
	// ErrCounterNotFound signals that the instance backing a counter no
	// longer exists; a refresh that fails with it is retryable after a
	// counter set rebuild.
	ErrCounterNotFound = errors.New("counter not found")
	// ErrNotFound is returned when the requested history entry does not exist.
	ErrNotFound = errors.New("not found")
)
