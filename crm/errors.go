/*
errors.go - Centralized error types for the CRM engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  NotFound is the only store-level error kind; everything else here
  belongs to the drag engine or to input validation at the API boundary.

USAGE:
  Callers match with errors.Is / errors.As:

    if crm.IsNotFound(err) {
        // 404
    }

SEE ALSO:
  - store.go: operations that return NotFoundError
  - drag.go: ErrDragInProgress, ErrNoActiveDrag
*/
package crm

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced id is absent at operation time.
	// The store never retries; retry, if any, is a caller policy.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidStage is returned when a deal references a stage name that is
	// not part of the configured stage list.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrDragInProgress is returned when a new drag gesture starts while a
	// previous commit is still unresolved.
	ErrDragInProgress = errors.New("drag gesture already in progress")

	// ErrNoActiveDrag is returned when a drop arrives without a matching
	// active gesture.
	ErrNoActiveDrag = errors.New("no active drag gesture")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Entity string
	ID     ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStageError identifies the rejected stage name.
type InvalidStageError struct {
	Stage string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid stage %q", e.Stage)
}

func (e *InvalidStageError) Unwrap() error { return ErrInvalidStage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
