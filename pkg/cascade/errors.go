package cascade

import (
	"errors"
	"net/http"
)

var (
	// ErrIndexOutOfRange is returned when an operation names a selector that
	// is not part of the current chain.
	ErrIndexOutOfRange = errors.New("cascade: selector index out of range")
	// ErrUnknownOption is returned when a value is not one of the selector's options.
	ErrUnknownOption = errors.New("cascade: value is not an option of the selector")
	// ErrLocked is returned when changing a selector whose value is committed.
	ErrLocked = errors.New("cascade: selector is locked by a committed region")
	// ErrDisabled is returned when changing selectors after a failed fetch left
	// the chain disabled.
	ErrDisabled = errors.New("cascade: selectors are disabled")
	// ErrStale is returned to the caller whose fetch was superseded by a later
	// change; the response was discarded.
	ErrStale = errors.New("cascade: response superseded by a newer request")
	// ErrNotCommitted is returned when removing a region that is not committed.
	ErrNotCommitted = errors.New("cascade: region is not committed")
	// ErrMissingSource is returned by New when no Source is configured.
	ErrMissingSource = errors.New("cascade: missing source")
)

// StatusCoder is implemented by source errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// FetchError wraps a failed Source call with the status reported to the user.
type FetchError struct {
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := "cascade: " + e.Op + " failed"
	if e.Status > 0 {
		msg += ": " + http.StatusText(e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusCode returns the upstream HTTP status, or 0 for transport failures.
func (e *FetchError) StatusCode() int { return e.Status }

func statusOf(err error) int {
	var coder StatusCoder
	if errors.As(err, &coder) && coder != nil {
		return coder.StatusCode()
	}
	return 0
}
