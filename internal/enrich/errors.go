package enrich

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks problems found before any candidate is dispatched.
	ErrConfiguration = errors.New("configuration error")

	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("generation error")
)

// GenerationError is a failed gating or media generation call for one note.
type GenerationError struct {
	Stage  string
	NoteID int64
	Err    error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return "generation error"
	}
	return fmt.Sprintf("%s failed for note %d: %v", e.Stage, e.NoteID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
