// Package simtest provides an end-to-end test harness for validating the
// dynamics of assembled simulations.
//
// Scenarios exercise the real pipeline with no mocks: model validation,
// network and cell construction, interaction wiring, integration. A Scenario
// wraps a programmatic modelfile.Model plus an optional Mutate hook for
// wiring the model format cannot express, and the Runner turns it into
// per-cell trajectories for property-based assertions.
//
// Usage:
//
//	func TestDecay(t *testing.T) {
//	    r := simtest.NewRunner(t)
//	    res := r.Run(simtest.Scenario{
//	        Name:  "exponential-decay",
//	        Model: modelfile.Model{...},
//	    })
//	    simtest.AssertMatchesClosedForm(t, res, 0, "a", 1e-4, func(tt float64) float64 {
//	        return 8 * math.Exp(-0.5*tt)
//	    })
//	}
package simtest
