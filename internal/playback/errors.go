package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is returned when the source table has no header row.
	ErrNoHeader = errors.New("recording has no header row")

	// ErrEmptyRecording is returned when playback is started on a recording
	// with no data rows.
	ErrEmptyRecording = errors.New("recording has no frames")

	// ErrAlreadyStarted is returned when Start is called on a scheduler that
	// has left the idle state.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrInvalidFrequency is returned for a non-positive or non-finite tick rate.
	ErrInvalidFrequency = errors.New("frequency must be a positive number")
)

// LoadError reports a recording that could not be loaded. It is fatal to
// playback: no scheduler is started from a failed load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load recording %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
