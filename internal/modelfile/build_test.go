package modelfile

import (
	"context"
	"math"
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/network"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
)

// TestBuildNetworks_ForwardModifierReference declares a modifier before the
// edge it gates; the topological pass must still build the target first.
func TestBuildNetworks_ForwardModifierReference(t *testing.T) {
	doc := `
networks:
  - name: bristle
    species: [{name: a}, {name: h}, {name: u}]
    edges:
      - {from: u, to_edge: ha, law: hill_inactiv, mod: mult, params: [1, 1, 4.0e-6, 6]}
      - {name: ha, from: h, to: a, law: hill_activ, params: [0.8, 0.0088, 4]}
cells: [{network: bristle, count: 1}]
times: {list: [0, 1]}
`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	nets, err := m.BuildNetworks()
	if err != nil {
		t.Fatalf("BuildNetworks: %v", err)
	}
	if len(nets) != 1 {
		t.Fatalf("got %d networks", len(nets))
	}

	edges := nets[0].Edges()
	if len(edges) != 2 {
		t.Fatalf("got %d edges", len(edges))
	}
	h, err := nets[0].SpeciesID("h")
	if err != nil {
		t.Fatal(err)
	}
	a, err := nets[0].SpeciesID("a")
	if err != nil {
		t.Fatal(err)
	}
	if edges[0].From != h {
		t.Errorf("edge 0 from species %d, want %d", edges[0].From, h)
	}
	if sp, ok := edges[0].Target.Species(); !ok || sp != a {
		t.Errorf("edge 0 target = %+v, want species %d", edges[0].Target, a)
	}
	if !edges[1].IsModifier() || edges[1].Mod() != network.ModOutput {
		t.Errorf("edge 1 mod = %q, want mult", edges[1].Mod())
	}
	if id, ok := edges[1].Target.Edge(); !ok || id != edges[0].ID {
		t.Errorf("edge 1 targets edge %d, want %d", id, edges[0].ID)
	}
}

func TestBuild_LatticeOverridesAndGrid(t *testing.T) {
	doc := `
networks:
  - name: net
    species: [{name: a, degradation: linear, params: [1]}]
cells:
  - network: net
    count: 3
    lattice: {start: 1, spacing: 2}
    initial: {a: 0.5}
    overrides: [{cell: 2, initial: {a: 4}}]
times: {start: 0, stop: 3, points: 4}
`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, times, err := m.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.NumCells() != 3 {
		t.Fatalf("NumCells = %d", s.NumCells())
	}
	pos := s.Positions()
	for i, want := range []float64{1, 3, 5} {
		if len(pos[i]) != 1 || pos[i][0] != want {
			t.Errorf("cell %d at %v, want [%g]", i, pos[i], want)
		}
	}

	for i, want := range []float64{0.5, 0.5, 4} {
		c, err := s.Cell(sim.CellID(i))
		if err != nil {
			t.Fatal(err)
		}
		ic := c.InitialConditions()
		if len(ic) != 1 || ic[0] != want {
			t.Errorf("cell %d initial = %v, want [%g]", i, ic, want)
		}
	}

	want := []float64{0, 1, 2, 3}
	if len(times) != len(want) {
		t.Fatalf("grid %v", times)
	}
	for i := range want {
		if math.Abs(times[i]-want[i]) > 1e-12 {
			t.Errorf("times[%d] = %g, want %g", i, times[i], want[i])
		}
	}
	if times[3] != 3 {
		t.Errorf("grid endpoint %v, want exactly 3", times[3])
	}

	if err := s.Ready(); err != nil {
		t.Errorf("Ready: %v", err)
	}
}

func TestBuild_TimesListCopied(t *testing.T) {
	m, err := Parse([]byte(`
networks: [{name: net, species: [{name: a}]}]
cells: [{network: net, count: 1, initial: {a: 0}}]
times: {list: [0, 0.5, 2]}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, times, err := m.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	times[0] = 99

	_, again, err := m.Build()
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if again[0] != 0 || again[1] != 0.5 || again[2] != 2 {
		t.Errorf("grid aliases the model's list: %v", again)
	}
}

func TestBuild_InteractionTargets(t *testing.T) {
	doc := `
networks:
  - name: net
    species:
      - {name: a}
      - {name: h, degradation: linear, params: [1]}
    edges:
      - {name: prod, from: h, to: a, law: lin_activ, params: [2]}
cells:
  - network: net
    count: 2
    lattice: {start: 0, spacing: 1}
    initial: {a: 0, h: 1}
interactions:
  - {species: h, couple_to: h, law: diffusion, rate: 1, connect: nearest, radius: 1.5}
  - {species: h, network: net, edge: prod, law: mean_field, rate: 1, mod: mult}
times: {list: [0, 1]}
`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, _, err := m.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ias := s.Interactions()
	if len(ias) != 2 {
		t.Fatalf("got %d interactions", len(ias))
	}

	if ias[0].From != "h" || ias[0].Law.Kind() != "diffusion" {
		t.Errorf("interaction 0 = %s from %q", ias[0].Law.Kind(), ias[0].From)
	}
	if name, ok := ias[0].Target.SpeciesName(); !ok || name != "h" {
		t.Errorf("interaction 0 targets %q, %v", name, ok)
	}
	if ias[0].Mod() != network.ModNone {
		t.Errorf("interaction 0 mod = %q", ias[0].Mod())
	}

	if ias[1].Law.Kind() != "mean_field" || ias[1].Mod() != network.ModOutput {
		t.Errorf("interaction 1 = %s mod %q", ias[1].Law.Kind(), ias[1].Mod())
	}
	netID, edgeID, ok := ias[1].Target.NetworkEdge()
	if !ok || netID != 0 || edgeID != 1 {
		t.Errorf("interaction 1 targets network %d edge %d, %v", netID, edgeID, ok)
	}

	if err := s.Ready(); err != nil {
		t.Errorf("Ready: %v", err)
	}
}

// TestBuild_PairsCoupling runs a built model end to end: two source cells
// feed a third through explicit pairs, the sources themselves stay inert.
func TestBuild_PairsCoupling(t *testing.T) {
	doc := `
networks: [{name: net, species: [{name: a}]}]
cells:
  - network: net
    count: 3
    initial: {a: 0}
    overrides:
      - {cell: 0, initial: {a: 3}}
      - {cell: 1, initial: {a: 5}}
interactions:
  - species: a
    couple_to: a
    law: mean_field
    rate: 1
    connect: pairs
    pairs: [[2, 0], [2, 1]]
times: {list: [0, 0.001]}
integrator: {method: rk4, substeps: 4}
`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, times, err := m.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	trs, err := s.Simulate(context.Background(), times)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	a0, err := trs[0].Species("a")
	if err != nil {
		t.Fatal(err)
	}
	if a0[1] != 3 {
		t.Errorf("unconnected cell drifted: %v", a0)
	}

	// Sources constant, so the fed cell grows linearly at mean(3, 5) = 4.
	a2, err := trs[2].Species("a")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a2[1]-0.004) > 1e-12 {
		t.Errorf("fed cell at %v, want 0.004", a2[1])
	}
}

// TestBuild_NearestDiffusion checks the lattice neighbourhood wiring by
// diffusing a point source along a three-cell line.
func TestBuild_NearestDiffusion(t *testing.T) {
	doc := `
networks: [{name: net, species: [{name: h}]}]
cells:
  - network: net
    count: 3
    lattice: {start: 0, spacing: 1}
    initial: {h: 0}
    overrides: [{cell: 0, initial: {h: 1}}]
interactions:
  - species: h
    couple_to: h
    law: diffusion
    rate: 1
    connect: nearest
    radius: 1.5
times: {list: [0, 0.01]}
integrator: {method: rk4, substeps: 8}
`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s, times, err := m.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	trs, err := s.Simulate(context.Background(), times)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	var final [3]float64
	for i := range final {
		h, err := trs[i].Species("h")
		if err != nil {
			t.Fatal(err)
		}
		final[i] = h[1]
	}

	// Series expansion of the chain Laplacian at t=0.01.
	if math.Abs(final[0]-0.99010083) > 1e-5 {
		t.Errorf("source cell at %v, want about 0.9901", final[0])
	}
	if final[1] <= 0 || final[1] >= final[0] {
		t.Errorf("middle cell at %v", final[1])
	}
	if final[2] < 0 || final[2] >= final[1] {
		t.Errorf("far cell at %v, want below %v", final[2], final[1])
	}
	if sum := final[0] + final[1] + final[2]; math.Abs(sum-1) > 1e-9 {
		t.Errorf("diffusion not conservative: total %v", sum)
	}
}
