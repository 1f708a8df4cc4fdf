package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/azvault/go/internal/vault"
)

var (
	// ErrAuthenticationFailed indicates incorrect password or authentication failure
	ErrAuthenticationFailed = errors.New("authentication failed: incorrect password")

	// ErrDatabaseNotConnected indicates no active database connection
	ErrDatabaseNotConnected = errors.New("database not connected")

	// ErrItemDeleted indicates a write targeted a soft-deleted item
	ErrItemDeleted = errors.New("item is deleted; recover or purge it first")
)

// DatabaseError wraps database operation errors with additional context
type DatabaseError struct {
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database operation '%s' failed: %v", e.Operation, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Is reports lock contention as vault.ErrTransient so reads are retried
func (e *DatabaseError) Is(target error) bool {
	return target == vault.ErrTransient && isBusy(e.Err)
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(operation string, err error) *DatabaseError {
	return &DatabaseError{
		Operation: operation,
		Err:       err,
	}
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy")
}
