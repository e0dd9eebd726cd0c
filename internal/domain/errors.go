package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling without
// growing a switch for every new error type.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - match with errors.Is()
var (
	// ErrNotFound indicates a node, project, or session id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate resource (same name under the same parent).
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates a missing or invalid identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller does not own the project.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidOperation indicates a structurally invalid tree mutation:
	// self-move, cyclic move, non-folder move target, cross-project reference.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidState indicates an upload session protocol violation:
	// out-of-order or duplicate chunk delivery, or completing a session twice.
	ErrInvalidState = errors.New("invalid state")

	// ErrStorageFailure indicates an object-store or metadata-store call
	// failed. Always retryable by the caller, never silently swallowed.
	ErrStorageFailure = errors.New("storage failure")

	// ErrConfiguration indicates required storage configuration is missing,
	// surfaced distinctly so operators can tell setup from runtime failures.
	ErrConfiguration = errors.New("configuration error")
)

// ConflictError carries details about the existing resource so handlers can
// return it alongside the 409.
type ConflictError struct {
	Message      string
	ResourceType string // node or project
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
