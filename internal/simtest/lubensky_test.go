package simtest_test

import (
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/modelfile"
	"github.com/hermangudjonson/simulation-framework/internal/simtest"
)

// Constants from Lubensky, Pennington, Shraiman and Baker's one-dimensional
// model of sensory organ precursor selection in the fly notum (PNAS 2011).
// a is the proneural commitment variable, s a slow cell-autonomous
// feedback, h a fast long-range activator and u a short-range inhibitor
// that gates h's input to a.
const (
	lubAa, lubAs, lubAh, lubAu = 0.65, 0.5, 1.5, 2.2
	lubTs, lubTh, lubTu        = 4.0, 101.0, 2.0
	lubS, lubH, lubU           = 0.57, 0.0088, 4e-6
	lubG, lubF                 = 0.8, 0.6
	lubDh, lubDu               = 200.0, 0.16
)

// bristleModel lays cells on a unit line with the anterior cell primed to
// commit, h and u diffusing between lattice neighbors.
func bristleModel(cells int) modelfile.Model {
	return modelfile.Model{
		Name: "bristle-row",
		Networks: []modelfile.NetworkDef{{
			Name: "bristle",
			Species: []modelfile.SpeciesDef{
				{Name: "a", Degradation: "linear", Params: []float64{1}},
				{Name: "s", Degradation: "linear", Params: []float64{1 / lubTs}},
				{Name: "h", Degradation: "linear", Params: []float64{1 / lubTh}},
				{Name: "u", Degradation: "linear", Params: []float64{1 / lubTu}},
			},
			Edges: []modelfile.EdgeDef{
				{From: "a", To: "a", Law: "hill_activ", Params: []float64{1, lubAa, 4}},
				{From: "a", To: "s", Law: "hill_activ", Params: []float64{1 / lubTs, lubAs, 4}},
				{From: "s", To: "a", Law: "hill_activ", Params: []float64{lubF, lubS, 4}},
				{From: "a", To: "u", Law: "hill_activ", Params: []float64{1 / lubTu, lubAu, 8}},
				{From: "a", To: "h", Law: "hill_activ", Params: []float64{1 / lubTh, lubAh, 8}},
				{Name: "ha", From: "h", To: "a", Law: "hill_activ", Params: []float64{lubG, lubH, 4}},
				{From: "u", ToEdge: "ha", Law: "hill_inactiv", Mod: "mult", Params: []float64{1, 1, lubU, 6}},
			},
		}},
		Cells: []modelfile.CellBlock{{
			Network: "bristle",
			Count:   cells,
			Lattice: &modelfile.LatticeDef{Start: 1, Spacing: 1},
			Initial: map[string]float64{"a": 0, "s": 0, "h": 0, "u": 0},
			Overrides: []modelfile.OverrideDef{
				{Cell: 0, Initial: map[string]float64{"a": 1 + lubF, "s": 1}},
			},
		}},
		Interactions: []modelfile.InteractionDef{
			{Species: "h", CoupleTo: "h", Law: "diffusion", Rate: lubDh / lubTh, Connect: "nearest", Radius: 1.5},
			{Species: "u", CoupleTo: "u", Law: "diffusion", Rate: lubDu / lubTu, Connect: "nearest", Radius: 1.5},
		},
		Times:      modelfile.TimesDef{Start: 0, Stop: 150, Points: 151},
		Integrator: modelfile.IntegratorDef{Method: "rkf45", RelTolerance: 1e-6, AbsTolerance: 1e-9},
	}
}

// The primed anterior cell stays committed, long-range activation through h
// recruits further cells, and u's local veto keeps the committed subset
// spaced. The run should settle into a mix of high and low cells without
// ever leaving the physically plausible range.
func TestBristlePattern_SpacedSelection(t *testing.T) {
	res := simtest.NewRunner(t).Run(simtest.Scenario{
		Name:  "bristle-pattern",
		Model: bristleModel(30),
	})

	simtest.AssertAllFinite(t, res)
	simtest.AssertWithin(t, res, "a", -0.01, 2.5)
	simtest.AssertWithin(t, res, "s", -0.01, 1.2)
	simtest.AssertWithin(t, res, "h", -0.01, 1.2)
	simtest.AssertWithin(t, res, "u", -0.01, 1.2)

	finals := res.Finals(t, "a")
	if finals[0] < 1.0 {
		t.Errorf("primed anterior cell lost commitment: final a = %.4f", finals[0])
	}

	high, low := 0, 0
	for _, v := range finals {
		if v > 0.5 {
			high++
		}
		if v < 0.1 {
			low++
		}
	}
	if high < 1 || high > 20 {
		t.Errorf("want a spaced subset of committed cells, got %d of %d above 0.5: %v", high, len(finals), finals)
	}
	if low < 1 {
		t.Errorf("no cell stayed uncommitted: finals %v", finals)
	}
}
