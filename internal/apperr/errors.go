// Package apperr holds the sentinel errors shared across layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidPosition = errors.New("invalid position")
	ErrBusy            = errors.New("operation in flight")
)

// RemoteError is a failure reported by the remote API. Message is the
// server-provided text, if any.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: status %d", e.Status)
	}
	return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto the sentinel errors so callers can
// use errors.Is across the HTTP boundary.
func (e *RemoteError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnprocessableEntity:
		return ErrInvalidPosition
	case http.StatusTooManyRequests:
		return ErrBusy
	}
	return nil
}

// Message returns the server-provided message carried by err, falling back
// to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
