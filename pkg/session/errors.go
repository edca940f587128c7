package session

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means required credentials are missing. It is
	// returned before any remote call is made.
	ErrConfiguration = errors.New("configuration error")

	// ErrLaunch means the driver initialized without a usable browser.
	ErrLaunch = errors.New("launch failed")

	// ErrSessionNotFound means a session id is absent from the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTeardown wraps driver close failures. It is logged, never returned
	// from Remove.
	ErrTeardown = errors.New("teardown failed")

	// ErrSessionLimit means the store already holds MaxSessions records.
	ErrSessionLimit = errors.New("session limit reached")
)

// NotFoundError reports the id that could not be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Session %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}
