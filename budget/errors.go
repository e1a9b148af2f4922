/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Callers classify with errors.Is via the helpers at the bottom.

ERROR CATEGORIES:
  1. Invalid argument - rejected before any write
  2. Not found        - unknown category / expense / week
  3. Conflict         - concurrent natural-key write collision (retryable)
  4. Persistence      - storage backend failures, propagated unchanged
*/
package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for missing, negative or non-numeric
	// input. Validation always happens before any write.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCategoryNotFound is returned when a category id references no
	// known category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrExpenseNotFound is returned when an expense id doesn't exist.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrConflict is returned when the storage backend reports a
	// uniqueness violation on a natural-key write. Safe to retry once;
	// concurrent seeding converges because rollover rows are deterministic.
	ErrConflict = errors.New("concurrent write conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AmountError reports an amount that failed validation.
type AmountError struct {
	Field  string
	Reason string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *AmountError) Unwrap() error { return ErrInvalidArgument }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrExpenseNotFound)
}

// IsInvalid returns true if the error is due to invalid client input.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
