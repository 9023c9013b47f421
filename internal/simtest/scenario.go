package simtest

import (
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/modelfile"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name  string
	Model modelfile.Model

	// Mutate, when non-nil, receives the assembled simulation before
	// integration. Use it to wire what the model format cannot express,
	// like synthetic interaction laws.
	Mutate func(t *testing.T, s *sim.Simulation)
}

// Result captures one scenario run: the assembled simulation, the output
// grid, and per-cell trajectories indexed by cell id.
type Result struct {
	Sim          *sim.Simulation
	Times        []float64
	Trajectories []*trajectory.Trajectory
}

// Series returns one cell's time course for a species, failing the test
// when the cell's network lacks it.
func (res Result) Series(t *testing.T, cellID int, species string) []float64 {
	t.Helper()
	if cellID < 0 || cellID >= len(res.Trajectories) {
		t.Fatalf("Series: no trajectory for cell %d", cellID)
	}
	vals, err := res.Trajectories[cellID].Species(species)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	return vals
}

// Finals returns the last value of one species in every cell, in cell id
// order, failing the test when any cell lacks the species.
func (res Result) Finals(t *testing.T, species string) []float64 {
	t.Helper()
	finals := make([]float64, len(res.Trajectories))
	for i, tr := range res.Trajectories {
		vals, err := tr.Species(species)
		if err != nil {
			t.Fatalf("Finals: %v", err)
		}
		finals[i] = vals[len(vals)-1]
	}
	return finals
}
