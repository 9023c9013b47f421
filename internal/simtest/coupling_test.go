package simtest_test

import (
	"math"
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/modelfile"
	"github.com/hermangudjonson/simulation-framework/internal/simtest"
)

// A multiplicative modifier meters another edge's output. Here b both fuels
// and meters a's production: the constant source 2 is scaled by 10*b, so
// da/dt = 20*b while b self-limits parabolically. Both closed forms are
// known:
//
//	b(t) = b0 / (1 + 0.5*b0*t)
//	a(t) = a0 + 40*ln(1 + 0.5*b0*t)
func TestEdgeModifier_GatesProduction(t *testing.T) {
	sc := simtest.Scenario{
		Name: "gated-production",
		Model: modelfile.Model{
			Networks: []modelfile.NetworkDef{{
				Name: "gated",
				Species: []modelfile.SpeciesDef{
					{Name: "a"},
					{Name: "b", Degradation: "parabolic", Params: []float64{0.5}},
				},
				Edges: []modelfile.EdgeDef{
					{Name: "prod", From: "b", To: "a", Law: "const_prod", Params: []float64{2}},
					{From: "b", ToEdge: "prod", Law: "lin_activ", Mod: "mult", Params: []float64{10}},
				},
			}},
			Cells: []modelfile.CellBlock{{
				Network: "gated",
				Count:   2,
				Initial: map[string]float64{"a": 5, "b": 5},
				Overrides: []modelfile.OverrideDef{
					{Cell: 1, Initial: map[string]float64{"a": 10, "b": 10}},
				},
			}},
			Times:      modelfile.TimesDef{Start: 0, Stop: 10, Points: 51},
			Integrator: modelfile.IntegratorDef{Method: "rkf45", RelTolerance: 1e-8, AbsTolerance: 1e-10},
		},
	}

	res := simtest.NewRunner(t).Run(sc)
	simtest.AssertAllFinite(t, res)
	simtest.AssertMonotoneDecreasing(t, res, 0, "b")
	simtest.AssertMonotoneDecreasing(t, res, 1, "b")

	bOf := func(b0 float64) func(float64) float64 {
		return func(tm float64) float64 { return b0 / (1 + 0.5*b0*tm) }
	}
	aOf := func(a0, b0 float64) func(float64) float64 {
		return func(tm float64) float64 { return a0 + 40*math.Log(1+0.5*b0*tm) }
	}
	simtest.AssertMatchesClosedForm(t, res, 0, "b", 1e-4, bOf(5))
	simtest.AssertMatchesClosedForm(t, res, 1, "b", 1e-4, bOf(10))
	simtest.AssertMatchesClosedForm(t, res, 0, "a", 5e-3, aOf(5, 5))
	simtest.AssertMatchesClosedForm(t, res, 1, "a", 5e-3, aOf(10, 10))
}

// Mean-field coupling averages a source species over explicitly paired
// cells, here feeding a species in a different network. The donors carry no
// dynamics, so the acceptor integrates a constant mean and grows linearly.
func TestMeanField_FeedsAcrossNetworks(t *testing.T) {
	sc := simtest.Scenario{
		Name: "mean-field-feed",
		Model: modelfile.Model{
			Networks: []modelfile.NetworkDef{
				{Name: "donor", Species: []modelfile.SpeciesDef{{Name: "g"}}},
				{Name: "acceptor", Species: []modelfile.SpeciesDef{{Name: "r"}}},
			},
			Cells: []modelfile.CellBlock{
				{
					Network: "donor",
					Count:   2,
					Initial: map[string]float64{"g": 3},
					Overrides: []modelfile.OverrideDef{
						{Cell: 1, Initial: map[string]float64{"g": 5}},
					},
				},
				{Network: "acceptor", Count: 1, Initial: map[string]float64{"r": 0}},
			},
			Interactions: []modelfile.InteractionDef{{
				Species:  "g",
				CoupleTo: "r",
				Law:      "mean_field",
				Rate:     1,
				Connect:  "pairs",
				Pairs:    [][]int{{2, 0}, {2, 1}},
			}},
			Times:      modelfile.TimesDef{Start: 0, Stop: 2, Points: 5},
			Integrator: modelfile.IntegratorDef{Method: "rk4", Substeps: 4},
		},
	}

	res := simtest.NewRunner(t).Run(sc)
	simtest.AssertAllFinite(t, res)
	simtest.AssertMatchesClosedForm(t, res, 0, "g", 1e-12, func(float64) float64 { return 3 })
	simtest.AssertMatchesClosedForm(t, res, 1, "g", 1e-12, func(float64) float64 { return 5 })
	simtest.AssertMatchesClosedForm(t, res, 2, "r", 1e-9, func(tm float64) float64 { return 4 * tm })
}
