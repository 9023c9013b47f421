package integrate

import "context"

// DefaultSubsteps is the substep count used when NewRK4 is given a
// non-positive value.
const DefaultSubsteps = 16

// RK4 is the classic fourth-order Runge-Kutta method with a fixed number of
// substeps per grid interval. It has no error control; use it for smooth
// systems or as a cross-check against the adaptive integrator.
type RK4 struct {
	substeps int
}

// NewRK4 returns a fixed-step integrator taking substeps steps between
// consecutive time points. Non-positive substeps selects DefaultSubsteps.
func NewRK4(substeps int) *RK4 {
	if substeps < 1 {
		substeps = DefaultSubsteps
	}
	return &RK4{substeps: substeps}
}

// Integrate implements Integrator.
func (rk *RK4) Integrate(ctx context.Context, f Derivative, y0 []float64, times []float64) (*Solution, error) {
	if err := validateTimes(times); err != nil {
		return nil, err
	}
	sol := newSolution(times, y0)
	if len(times) == 1 {
		return sol, nil
	}

	y := make([]float64, len(y0))
	copy(y, y0)
	t := times[0]
	var stats Stats
	var h float64

	for i := 1; i < len(times); i++ {
		h = (times[i] - t) / float64(rk.substeps)
		for s := 0; s < rk.substeps; s++ {
			if err := ctx.Err(); err != nil {
				return nil, stepFailure(t, h, stats.Steps, y, err)
			}
			ynext, err := rk4Step(f, t, y, h)
			if err != nil {
				return nil, stepFailure(t, h, stats.Steps, y, err)
			}
			if !finite(ynext) {
				return nil, stepFailure(t, h, stats.Steps, y, ErrUnstable)
			}
			y = ynext
			t += h
			stats.Steps++
			stats.Evals += 4
		}
		// Land exactly on the grid point rather than accumulating h.
		t = times[i]
		row := make([]float64, len(y))
		copy(row, y)
		sol.States = append(sol.States, row)
	}

	stats.LastStep = h
	sol.Stats = stats
	return sol, nil
}

// rk4Step advances y by one classic Runge-Kutta step of size h.
func rk4Step(f Derivative, t float64, y []float64, h float64) ([]float64, error) {
	k1, err := f(t, y)
	if err != nil {
		return nil, err
	}
	yt := make([]float64, len(y))
	for i := range y {
		yt[i] = y[i] + 0.5*h*k1[i]
	}
	k2, err := f(t+0.5*h, yt)
	if err != nil {
		return nil, err
	}
	for i := range y {
		yt[i] = y[i] + 0.5*h*k2[i]
	}
	k3, err := f(t+0.5*h, yt)
	if err != nil {
		return nil, err
	}
	for i := range y {
		yt[i] = y[i] + h*k3[i]
	}
	k4, err := f(t+h, yt)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out, nil
}
