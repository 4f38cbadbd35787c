/*
errors.go - Error taxonomy for the period ledger and sync layer

PURPOSE:
  All sentinel errors in one place. The taxonomy is deliberately small:
  calculation has no error conditions, numeric input is coerced upstream, and
  the lock flag never rejects a write.

ERROR CATEGORIES:
  1. Ledger errors - undo with no history, edits referencing unknown units
  2. Import errors - documents that do not conform to the AppState shape
  3. Sync errors   - remote push/subscribe failures (degraded mode, not fatal)

USAGE:
  if errors.Is(err, ledger.ErrEmptyHistory) { ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyHistory is returned when undo is attempted with no archived
	// period available. State is left unchanged.
	ErrEmptyHistory = errors.New("no archived period to restore")

	// ErrUnknownUnit is returned when a reading edit references a unit id that
	// is not in the roster. Readings and units must stay one-to-one.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrMalformedImport is returned when an imported document does not
	// conform to the AppState shape. The import is rejected before any
	// mutation.
	ErrMalformedImport = errors.New("malformed import document")

	// ErrRemoteUnavailable is returned when a remote push or subscribe fails.
	// Local edits continue unaffected; the next state change attempts another
	// push.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// UnknownUnitError reports which unit id an edit referenced.
type UnknownUnitError struct {
	UnitID string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.UnitID)
}

func (e *UnknownUnitError) Unwrap() error { return ErrUnknownUnit }

// MalformedImportError carries the shape violation that rejected an import.
type MalformedImportError struct {
	Reason error
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("malformed import document: %v", e.Reason)
}

func (e *MalformedImportError) Unwrap() error { return ErrMalformedImport }
