package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage_RemoteError(t *testing.T) {
	err := fmt.Errorf("move: %w", &RemoteError{Status: 409, Message: "position taken"})
	if got := Message(err); got != "position taken" {
		t.Errorf("Message = %q, want server message", got)
	}
}

func TestMessage_RemoteErrorWithoutBody(t *testing.T) {
	err := &RemoteError{Status: 502}
	if got := Message(err); got != "remote: status 502" {
		t.Errorf("Message = %q", got)
	}
}

func TestMessage_PlainError(t *testing.T) {
	if got := Message(errors.New("connection refused")); got != "connection refused" {
		t.Errorf("Message = %q", got)
	}
	if got := Message(nil); got != "" {
		t.Errorf("Message(nil) = %q", got)
	}
}

func TestRemoteError_Unwrap(t *testing.T) {
	cases := map[int]error{
		404: ErrNotFound,
		409: ErrConflict,
		422: ErrInvalidPosition,
		429: ErrBusy,
	}
	for status, want := range cases {
		err := fmt.Errorf("call: %w", &RemoteError{Status: status})
		if !errors.Is(err, want) {
			t.Errorf("status %d does not match %v", status, want)
		}
	}
	if errors.Is(&RemoteError{Status: 500}, ErrNotFound) {
		t.Error("500 matched ErrNotFound")
	}
}
