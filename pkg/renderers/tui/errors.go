package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeclined is returned by Submit when the user does not confirm.
	ErrDeclined = errors.New("tui: submission declined")
	// ErrNoFinishHandler is returned by Submit before a controller is attached.
	ErrNoFinishHandler = errors.New("tui: no finish handler registered")
	// ErrMissingItems is returned for array fields without an item schema.
	ErrMissingItems = errors.New("tui: array field has no items schema")
)
