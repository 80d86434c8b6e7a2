package navigation

import (
	"errors"
	"fmt"

	"github.com/unklstewy/shipnav/pkg/coordinates"
)

// Errors returned by the trajectory engine.
var (
	// ErrInvalidParameter indicates a run parameter outside its valid range.
	ErrInvalidParameter = errors.New("navigation: invalid parameter")

	// ErrDegenerateStep indicates the steering law could not produce a direction,
	// which happens when the corrected offset to the target is exactly zero.
	ErrDegenerateStep = errors.New("navigation: degenerate guidance step")

	// ErrDriftFunction indicates the drift function returned NaN or Inf, or panicked.
	ErrDriftFunction = errors.New("navigation: drift function undefined")
)

// StepError records where in a run the engine failed.
// Step is the zero-based iteration index and Position the last valid pursuer position.
type StepError struct {
	Step     int
	Position coordinates.V2
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d at %s: %v", e.Step, e.Position, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
