/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place. Every failure the engine reports to a caller
  is one of four kinds, and each kind unwraps to a sentinel so callers can
  branch with errors.Is without knowing the concrete type.

ERROR CATEGORIES:
  1. Validation - malformed input, capacity exceeded, bad date range (400)
  2. Conflict   - overlapping stay, double check-in, open drawer, pending balance (409)
  3. NotFound   - unknown reservation / room / session (404)
  4. Storage    - transaction failure, always rolled back, opaque to clients (500)

USAGE:
    if errors.Is(err, generic.ErrConflict) {
        var ce *generic.ConflictError
        errors.As(err, &ce) // ce.Detail carries folio / affected reservations
    }

SEE ALSO:
  - api/errors.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports input the caller must correct. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a request that is well-formed but clashes with
// current state. Detail is machine-readable context for the caller
// (the conflicting folio, the affected reservations, a balance snapshot).
type ConflictError struct {
	Reason string
	Detail any
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Conflict builds a ConflictError.
func Conflict(detail any, format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...), Detail: detail}
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// StorageError wraps a persistence failure. The cause is kept for logs and
// must not be shown to clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// Storage wraps err unless it is nil or already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) || IsNotFound(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the caller's input or
// the state they are acting on.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict)
}

// IsConflict returns true for state conflicts.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
