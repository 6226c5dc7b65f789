package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVersion indicates two registry units share a version number.
	ErrDuplicateVersion = errors.New("migration: duplicate version")

	// ErrInvalidVersion indicates a unit's version is not a positive integer.
	ErrInvalidVersion = errors.New("migration: version must be a positive integer")

	// ErrMissingUp indicates a unit was registered without an Up procedure.
	ErrMissingUp = errors.New("migration: up procedure is required")

	// ErrDownNotImplemented is returned by units whose inverse is not
	// supported; recovery is restore from backup.
	ErrDownNotImplemented = errors.New("migration: down not implemented, restore from backup")
)

// StructuralError indicates a DDL statement failed (duplicate column, syntax
// error, constraint violation on CREATE). Structural failures are fatal: the
// runner aborts and the host process must not start.
type StructuralError struct {
	Version   int
	Name      string
	Statement string
	Err       error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("migration %d (%s): statement %q failed: %v", e.Version, e.Name, e.Statement, e.Err)
	}
	return fmt.Sprintf("migration %d (%s): %v", e.Version, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// LedgerError indicates the schema_migrations table could not be created,
// read, or appended to. Always fatal.
type LedgerError struct {
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	return fmt.Sprintf("migration ledger: %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}
