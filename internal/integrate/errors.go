package integrate

import (
	"errors"
	"fmt"
)

var (
	// ErrBadTimes reports an empty or non-increasing time grid.
	ErrBadTimes = errors.New("integrate: time points must be strictly increasing")

	// ErrStepUnderflow reports that meeting the error tolerance would
	// require a step below the configured minimum.
	ErrStepUnderflow = errors.New("integrate: step size underflow")

	// ErrMaxSteps reports that the step budget ran out before the final
	// time point was reached.
	ErrMaxSteps = errors.New("integrate: maximum step count exceeded")

	// ErrUnstable reports a non-finite state or error estimate, usually a
	// sign the system diverged or the derivative produced NaN.
	ErrUnstable = errors.New("integrate: non-finite state or error estimate")
)

// StepError carries the integrator's position when a step failed: the last
// time reached, the step size being attempted, the accepted step count, and
// the last valid state. It wraps the underlying cause for errors.Is.
type StepError struct {
	Time  float64
	Step  float64
	Steps int
	State []float64
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("integrate: at t=%g (step %g, %d accepted): %v", e.Time, e.Step, e.Steps, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// stepFailure snapshots the integrator position into a StepError.
func stepFailure(t, h float64, steps int, y []float64, cause error) *StepError {
	state := make([]float64, len(y))
	copy(state, y)
	return &StepError{Time: t, Step: h, Steps: steps, State: state, Err: cause}
}
