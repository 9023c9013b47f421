package integrate

import (
	"context"
	"math"
)

// Fehlberg 4(5) tableau. rkfErr holds the difference between the fifth- and
// fourth-order weights, so the error estimate comes straight from the stages.
var (
	rkfC = [6]float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2}
	rkfA = [6][5]float64{
		{},
		{1.0 / 4},
		{3.0 / 32, 9.0 / 32},
		{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197},
		{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104},
		{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40},
	}
	rkfB4 = [6]float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0}
	rkfE  = [6]float64{1.0 / 360, 0, -128.0 / 4275, -2197.0 / 75240, 1.0 / 50, 2.0 / 55}
)

// Step-size controller bounds.
const (
	stepSafety = 0.84
	stepShrink = 0.1
	stepGrow   = 4.0
)

// RKF45 is the adaptive Runge-Kutta-Fehlberg 4(5) method: an embedded pair
// whose difference estimates the local error, shrinking the step when the
// tolerance is exceeded and growing it when comfortably met. Steps are
// clamped so states land exactly on the requested time points.
type RKF45 struct {
	config Config
}

// NewRKF45 returns an adaptive integrator. Zero-valued config fields fall
// back to DefaultConfig values, so RKF45 built from Config{} is usable.
func NewRKF45(config Config) *RKF45 {
	def := DefaultConfig()
	if config.MinStep <= 0 {
		config.MinStep = def.MinStep
	}
	if config.RelTolerance <= 0 {
		config.RelTolerance = def.RelTolerance
	}
	if config.AbsTolerance <= 0 {
		config.AbsTolerance = def.AbsTolerance
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = def.MaxSteps
	}
	return &RKF45{config: config}
}

// Integrate implements Integrator.
func (rk *RKF45) Integrate(ctx context.Context, f Derivative, y0 []float64, times []float64) (*Solution, error) {
	if err := validateTimes(times); err != nil {
		return nil, err
	}
	sol := newSolution(times, y0)
	if len(times) == 1 {
		return sol, nil
	}

	cfg := rk.config
	y := make([]float64, len(y0))
	copy(y, y0)
	t := times[0]

	h := cfg.InitialStep
	if h <= 0 {
		h = (times[len(times)-1] - times[0]) / 100
	}
	if cfg.MaxStep > 0 && h > cfg.MaxStep {
		h = cfg.MaxStep
	}

	var stats Stats
	attempts := 0

	for i := 1; i < len(times); i++ {
		target := times[i]
		for {
			if err := ctx.Err(); err != nil {
				return nil, stepFailure(t, h, stats.Steps, y, err)
			}
			if attempts >= cfg.MaxSteps {
				return nil, stepFailure(t, h, stats.Steps, y, ErrMaxSteps)
			}

			// Clamp the trial step to land exactly on the grid point.
			hTry := h
			landed := t+hTry >= target
			if landed {
				hTry = target - t
			}

			ynext, errEst, err := rkfStep(f, t, y, hTry)
			attempts++
			stats.Evals += 6
			if err != nil {
				return nil, stepFailure(t, hTry, stats.Steps, y, err)
			}
			if !finite(ynext) || !finite(errEst) {
				return nil, stepFailure(t, hTry, stats.Steps, y, ErrUnstable)
			}

			ratio := 0.0
			for j := range errEst {
				tol := cfg.AbsTolerance + cfg.RelTolerance*math.Max(math.Abs(y[j]), math.Abs(ynext[j]))
				if r := errEst[j] / tol; r > ratio {
					ratio = r
				}
			}

			accepted := ratio <= 1
			if accepted {
				y = ynext
				t += hTry
				stats.Steps++
			} else {
				stats.Rejected++
			}

			// Standard proportional controller for a fourth-order pair.
			factor := stepGrow
			if ratio > 0 {
				factor = stepSafety * math.Pow(ratio, -0.25)
				factor = math.Min(math.Max(factor, stepShrink), stepGrow)
			}
			h = hTry * factor
			if cfg.MaxStep > 0 && h > cfg.MaxStep {
				h = cfg.MaxStep
			}
			if h < cfg.MinStep {
				if accepted && landed {
					// The clamped remainder was legitimately tiny;
					// restart the next interval from the minimum.
					h = cfg.MinStep
				} else {
					return nil, stepFailure(t, h, stats.Steps, y, ErrStepUnderflow)
				}
			}

			if accepted && landed {
				break
			}
		}

		t = target
		row := make([]float64, len(y))
		copy(row, y)
		sol.States = append(sol.States, row)
	}

	stats.LastStep = h
	sol.Stats = stats
	return sol, nil
}

// rkfStep evaluates the six Fehlberg stages, returning the fourth-order
// update and the per-component local error estimate.
func rkfStep(f Derivative, t float64, y []float64, h float64) (ynext, errEst []float64, err error) {
	n := len(y)
	var ks [6][]float64
	yt := make([]float64, n)

	for s := 0; s < 6; s++ {
		if s == 0 {
			ks[0], err = f(t, y)
		} else {
			for i := 0; i < n; i++ {
				v := y[i]
				for j := 0; j < s; j++ {
					v += h * rkfA[s][j] * ks[j][i]
				}
				yt[i] = v
			}
			ks[s], err = f(t+rkfC[s]*h, yt)
		}
		if err != nil {
			return nil, nil, err
		}
	}

	ynext = make([]float64, n)
	errEst = make([]float64, n)
	for i := 0; i < n; i++ {
		var b, e float64
		for s := 0; s < 6; s++ {
			b += rkfB4[s] * ks[s][i]
			e += rkfE[s] * ks[s][i]
		}
		ynext[i] = y[i] + h*b
		errEst[i] = math.Abs(h * e)
	}
	return ynext, errEst, nil
}
