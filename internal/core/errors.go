package core

import (
	"errors"
	"fmt"
)

// ValidationError marks caller-supplied data that violates a
// precondition. It is always raised before any write, so a validation
// failure never leaves partial state behind.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validation builds a reusable validation sentinel.
func Validation(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// Validationf builds a one-off validation error.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrInvalidAmount  = Validation("invalid amount")
	ErrInvalidDate    = Validation("invalid date")
	ErrEmptyName      = Validation("empty name")
	ErrEmptyCategory  = Validation("empty category")
	ErrMissingAccount = Validation("missing account reference")

	// ErrInsufficientFunds is the advisory balance guard. The check
	// reads a possibly stale balance, so it is a UX guard rather than
	// a safety guarantee.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// NotFoundError reports an absent entity at read time.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for the given entity collection.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// PartialFailureError reports a multi-step operation that failed
// mid-sequence and could not be fully compensated: some steps remain
// committed. Err is the original failure, CompensationErr the one that
// prevented rollback.
type PartialFailureError struct {
	Op              string
	Err             error
	CompensationErr error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %v (compensation failed: %v)", e.Op, e.Err, e.CompensationErr)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// IsPartialFailure reports whether err left partially-applied state.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
