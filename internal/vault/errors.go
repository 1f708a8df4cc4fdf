package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the named item does not exist in the vault
	ErrNotFound = errors.New("item not found")

	// ErrInvalidName indicates the item name violates the vault naming rules
	ErrInvalidName = errors.New("invalid item name")

	// ErrInvalidValue indicates an empty or oversized secret value
	ErrInvalidValue = errors.New("invalid secret value")

	// ErrNotDeleted indicates a recover or purge targeted an item that is not soft-deleted
	ErrNotDeleted = errors.New("item is not deleted")

	// ErrTransport indicates the vault could not be reached or refused the whole operation
	ErrTransport = errors.New("vault unavailable")

	// ErrTransient marks failures that are worth retrying
	ErrTransient = errors.New("transient vault failure")
)

// TransportError wraps a failure that happened before any per-item work was dispatched
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vault operation '%s' failed: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// NewTransportError creates a new TransportError
func NewTransportError(operation string, err error) *TransportError {
	return &TransportError{
		Operation: operation,
		Err:       err,
	}
}
