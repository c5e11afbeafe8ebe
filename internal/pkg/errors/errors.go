package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources. Callers that
	// treat absence as a legitimate state (no plan yet, no commitment yet)
	// should check for it with errors.Is and respond with a null body, not
	// an error envelope.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input. Nothing is
	// persisted when an operation fails with it.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict signals a concurrent mutation of the same resource, e.g.
	// two plan generations racing for the same (user, week).
	ErrConflict = errors.New("conflict")
	// ErrUpstreamTimeout signals an unresponsive collaborator (retrieval,
	// reasoning, grading). Callers fall back; they do not bubble this up.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
)
