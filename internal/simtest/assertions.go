package simtest

import (
	"errors"
	"math"
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
)

// AssertNear asserts that a scalar lies within tol of want.
func AssertNear(t *testing.T, got, want, tol float64, label string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("AssertNear: %s: got %.8g, want %.8g (tolerance %.3g)", label, got, want, tol)
	}
}

// AssertSeriesNear asserts element-wise closeness of two series of equal
// length, reporting every offending index.
func AssertSeriesNear(t *testing.T, got, want []float64, tol float64, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("AssertSeriesNear: %s: got %d values, want %d", label, len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("AssertSeriesNear: %s: index %d: got %.8g, want %.8g (tolerance %.3g)", label, i, got[i], want[i], tol)
		}
	}
}

// AssertAllFinite asserts that no trajectory in the result contains a NaN
// or infinity.
func AssertAllFinite(t *testing.T, res Result) {
	t.Helper()
	for _, tr := range res.Trajectories {
		for i, row := range tr.States {
			for j, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("AssertAllFinite: cell %d: %s is %v at t=%.6g", tr.CellID, tr.SpeciesNames[j], v, tr.Times[i])
					return
				}
			}
		}
	}
}

// AssertWithin asserts that one species stays inside [lo, hi] at every time
// point in every cell whose network declares it.
func AssertWithin(t *testing.T, res Result, species string, lo, hi float64) {
	t.Helper()
	found := false
	for _, tr := range res.Trajectories {
		vals, err := tr.Species(species)
		if errors.Is(err, trajectory.ErrUnknownSpecies) {
			continue
		}
		if err != nil {
			t.Fatalf("AssertWithin: %v", err)
		}
		found = true
		for i, v := range vals {
			if v < lo || v > hi {
				t.Errorf("AssertWithin: cell %d: %s = %.8g at t=%.6g, want [%.4g, %.4g]", tr.CellID, species, v, tr.Times[i], lo, hi)
				break
			}
		}
	}
	if !found {
		t.Errorf("AssertWithin: species %q not in any trajectory", species)
	}
}

// AssertMonotoneDecreasing asserts that one cell's species never rises
// between consecutive time points, up to round-off.
func AssertMonotoneDecreasing(t *testing.T, res Result, cellID int, species string) {
	t.Helper()
	vals := res.Series(t, cellID, species)
	for i := 0; i+1 < len(vals); i++ {
		if vals[i+1] > vals[i]+1e-12 {
			t.Errorf("AssertMonotoneDecreasing: cell %d: %s rises from %.8g to %.8g between t=%.6g and t=%.6g",
				cellID, species, vals[i], vals[i+1], res.Times[i], res.Times[i+1])
			return
		}
	}
}

// AssertMatchesClosedForm asserts that one cell's species tracks an analytic
// solution over the whole grid, within tol at every point.
func AssertMatchesClosedForm(t *testing.T, res Result, cellID int, species string, tol float64, f func(time float64) float64) {
	t.Helper()
	vals := res.Series(t, cellID, species)
	worst, worstIdx := 0.0, 0
	for i, v := range vals {
		d := math.Abs(v - f(res.Times[i]))
		if d > worst {
			worst, worstIdx = d, i
		}
	}
	if worst > tol {
		t.Errorf("AssertMatchesClosedForm: cell %d: %s deviates by %.3g at t=%.6g (tolerance %.3g)",
			cellID, species, worst, res.Times[worstIdx], tol)
	}
}

// MaxAbsDiff returns the largest element-wise absolute difference between
// two series, comparing up to the shorter length.
func MaxAbsDiff(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	max := 0.0
	for i := 0; i < n; i++ {
		if d := math.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max
}
