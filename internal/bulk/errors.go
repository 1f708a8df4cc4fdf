package bulk

import "errors"

var (
	// ErrBusy indicates a bulk operation is already running for this view
	ErrBusy = errors.New("a bulk operation is already in progress")

	// ErrNoItems indicates a bulk operation was started with nothing to do
	ErrNoItems = errors.New("no items selected")

	// ErrNothingLoaded indicates an import was started before a payload was accepted
	ErrNothingLoaded = errors.New("no import payload loaded")
)
