// Package integrate provides numerical ODE integrators. A caller supplies a
// derivative function, an initial state, and the time points at which it
// wants the solution; the integrator chooses its own internal steps and
// reports states exactly at the requested points, never interpolating past
// them. Derivative functions must be pure: integrators evaluate them at
// arbitrary, possibly non-monotonic trial states.
package integrate

import (
	"context"
	"fmt"
	"math"
)

// Derivative computes dy/dt at time t. It must return a fresh slice of the
// same length as y and must not retain or mutate y.
type Derivative func(t float64, y []float64) ([]float64, error)

// Solution holds states at each requested time point plus run statistics.
type Solution struct {
	// Times echoes the requested time grid.
	Times []float64

	// States holds one state vector per time point; States[0] is the
	// initial state.
	States [][]float64

	// Stats describes the work the integrator did.
	Stats Stats
}

// Stats counts integrator work across one Integrate call.
type Stats struct {
	// Steps is the number of accepted steps.
	Steps int

	// Rejected is the number of attempted steps discarded for exceeding
	// the error tolerance. Always zero for fixed-step methods.
	Rejected int

	// Evals is the number of derivative evaluations.
	Evals int

	// LastStep is the step size in effect when integration finished.
	LastStep float64
}

// Integrator advances an initial state through a time grid.
type Integrator interface {
	// Integrate solves y' = f(t, y) from y0 at times[0], reporting the
	// state at every entry of times. times must be strictly increasing.
	Integrate(ctx context.Context, f Derivative, y0 []float64, times []float64) (*Solution, error)
}

// Config holds tunable parameters for the adaptive integrator.
type Config struct {
	// InitialStep is the first attempted step size. Zero picks a default
	// from the grid span.
	InitialStep float64

	// MinStep is the smallest permissible step; needing less fails with
	// ErrStepUnderflow. Default: 1e-12.
	MinStep float64

	// MaxStep caps the step size. Zero leaves it uncapped below the grid
	// spacing.
	MaxStep float64

	// RelTolerance is the per-component relative error tolerance.
	// Default: 1e-6.
	RelTolerance float64

	// AbsTolerance is the per-component absolute error tolerance, the
	// floor that keeps near-zero components from demanding infinite
	// precision. Default: 1e-9.
	AbsTolerance float64

	// MaxSteps bounds attempted steps (accepted plus rejected) per
	// Integrate call. Default: 100000.
	MaxSteps int
}

// DefaultConfig returns the default adaptive-integration configuration.
func DefaultConfig() Config {
	return Config{
		MinStep:      1e-12,
		RelTolerance: 1e-6,
		AbsTolerance: 1e-9,
		MaxSteps:     100000,
	}
}

// validateTimes checks the grid is non-empty and strictly increasing.
func validateTimes(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("%w: no time points", ErrBadTimes)
	}
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return fmt.Errorf("%w: times[%d]=%g after times[%d]=%g", ErrBadTimes, i, times[i], i-1, times[i-1])
		}
	}
	return nil
}

// newSolution seeds a solution with the initial state at times[0].
func newSolution(times, y0 []float64) *Solution {
	sol := &Solution{
		Times:  make([]float64, len(times)),
		States: make([][]float64, 0, len(times)),
	}
	copy(sol.Times, times)
	first := make([]float64, len(y0))
	copy(first, y0)
	sol.States = append(sol.States, first)
	return sol
}

// finite reports whether every component of y is a usable number.
func finite(y []float64) bool {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
