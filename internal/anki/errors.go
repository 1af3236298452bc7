package anki

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

// ErrStore matches every *StoreError via errors.Is.
var ErrStore = errors.New("note store error")

// StoreError is a sanitized summary of a failed AnkiConnect call: the endpoint was
// unreachable, answered with a non-2xx status, returned a malformed envelope, or
// reported a non-null error field.
type StoreError struct {
	Action     string
	StatusCode int

	// Message is the remote error value or a description of the protocol violation.
	Message string

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "anki: store error"
	}
	parts := []string{"anki: action=" + strings.TrimSpace(e.Action)}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Err != nil {
		parts = append(parts, redact.Secrets(e.Err.Error()))
	}
	return strings.Join(parts, ": ")
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrStore as a match so callers need not know the concrete type.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func newStoreError(action, message string, err error) *StoreError {
	return &StoreError{Action: action, Message: message, Err: err}
}
