package services

import "errors"

// Error taxonomy shared by the HTTP and websocket paths. Anything not
// wrapping one of these sentinels is treated as a storage failure.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthenticated   = errors.New("authentication failed")
	ErrUnauthorized      = errors.New("unauthorized")
)

// ErrConditionFailed is returned by the storage layer when a conditional
// write loses its optimistic check. Domain services translate it into the
// sentinel appropriate for the operation.
var ErrConditionFailed = errors.New("conditional check failed")
