package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or cancelled
	// the picker.
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalidChoice is returned when the driver reports an index outside
	// the offered options.
	ErrInvalidChoice = errors.New("tui: invalid choice")
)
