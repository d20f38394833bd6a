package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/motorambos/internal/validate"
)

var (
	// ErrMissingLocation is returned when a submission is attempted
	// without a location fix. No collaborator call is made in that case.
	ErrMissingLocation = errors.New("missing location fix")

	// ErrBusy is returned when an operation is already in flight.
	// Callers disable the triggering control and try again once the
	// current operation settles.
	ErrBusy = errors.New("operation already in flight")

	// ErrCannotGoBack is returned on Back from the first step or from
	// the terminal results step.
	ErrCannotGoBack = errors.New("cannot navigate back from this step")

	// ErrNotAtResults is returned when RefreshResults is called before
	// the wizard has reached the results step.
	ErrNotAtResults = errors.New("no results to refresh yet")
)

// ValidationError carries the field-level messages that blocked a step
// advance. It is rendered inline, never as a toast.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ReviewSubmitError wraps a failed review submission. Unlike provider
// lookup, this is surfaced as a blocking inline error and the draft is
// kept for retry.
type ReviewSubmitError struct {
	Err error
}

func (e *ReviewSubmitError) Error() string {
	return fmt.Sprintf("review submission failed: %v", e.Err)
}

func (e *ReviewSubmitError) Unwrap() error { return e.Err }
