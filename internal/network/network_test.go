package network

import (
	"errors"
	"testing"
)

// addSpecies adds a species with no degradation and fails the test on error.
func addSpecies(t *testing.T, n *Network, name string) SpeciesID {
	t.Helper()
	id, err := n.AddSpecies(name, "", nil)
	if err != nil {
		t.Fatalf("AddSpecies(%q): %v", name, err)
	}
	return id
}

// addEdge wires from -> target with the given law and fails the test on error.
func addEdge(t *testing.T, n *Network, from SpeciesID, target EdgeTarget, kind LawKind, mod ModKind, params []float64) EdgeID {
	t.Helper()
	law, err := NewRateLaw(kind, mod, params)
	if err != nil {
		t.Fatalf("NewRateLaw(%s): %v", kind, err)
	}
	id, err := n.AddEdge(from, target, law)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return id
}

func TestAddSpecies(t *testing.T) {
	n := New("test")
	a := addSpecies(t, n, "a")
	b := addSpecies(t, n, "b")
	if a != 0 || b != 1 {
		t.Errorf("species ids = %d, %d; want 0, 1", a, b)
	}
	if n.NumSpecies() != 2 {
		t.Errorf("NumSpecies = %d, want 2", n.NumSpecies())
	}

	if _, err := n.AddSpecies("a", "", nil); !errors.Is(err, ErrDuplicateSpecies) {
		t.Errorf("duplicate name: expected ErrDuplicateSpecies, got %v", err)
	}

	id, err := n.SpeciesID("b")
	if err != nil || id != b {
		t.Errorf("SpeciesID(b) = %d, %v; want %d, nil", id, err, b)
	}
	if _, err := n.SpeciesID("z"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("unknown name: expected ErrUnknownSpecies, got %v", err)
	}

	names := n.SpeciesNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("SpeciesNames = %v", names)
	}
}

func TestAddSpecies_WithDegradation(t *testing.T) {
	n := New("test")
	id, err := n.AddSpecies("b", LawParabolicDegradation, []float64{0.5})
	if err != nil {
		t.Fatalf("AddSpecies: %v", err)
	}

	sp, err := n.Species(id)
	if err != nil {
		t.Fatalf("Species: %v", err)
	}
	if !sp.Degrades() {
		t.Error("expected degradation to be recorded")
	}

	// Degradation is wired as a self-loop contribution.
	contribs := n.Contributions(id)
	if len(contribs) != 1 {
		t.Fatalf("Contributions = %d edges, want 1", len(contribs))
	}
	if contribs[0].From != id {
		t.Errorf("degradation edge from %d, want self-loop on %d", contribs[0].From, id)
	}

	if _, err := n.SetDegradation(id, LawLinearDegradation, []float64{1}); !errors.Is(err, ErrDegradationSet) {
		t.Errorf("second degradation: expected ErrDegradationSet, got %v", err)
	}

	other := addSpecies(t, n, "c")
	if _, err := n.SetDegradation(other, LawLinearActivation, []float64{1}); !errors.Is(err, ErrDegradationKind) {
		t.Errorf("activation as degradation: expected ErrDegradationKind, got %v", err)
	}
}

func TestAddEdge_Validation(t *testing.T) {
	n := New("test")
	a := addSpecies(t, n, "a")
	b := addSpecies(t, n, "b")

	regular, err := NewRateLaw(LawLinearActivation, ModNone, []float64{1})
	if err != nil {
		t.Fatalf("NewRateLaw: %v", err)
	}
	modifier, err := NewRateLaw(LawHillActivation, ModInput, []float64{1, 1, 2})
	if err != nil {
		t.Fatalf("NewRateLaw: %v", err)
	}

	// A regular law cannot target an edge, and a modifier cannot target a species.
	if _, err := n.AddEdge(a, ToEdge(0), regular); !errors.Is(err, ErrTargetKind) {
		t.Errorf("regular law on edge target: expected ErrTargetKind, got %v", err)
	}
	if _, err := n.AddEdge(a, ToSpecies(b), modifier); !errors.Is(err, ErrTargetKind) {
		t.Errorf("modifier law on species target: expected ErrTargetKind, got %v", err)
	}

	// Both endpoints must already exist.
	if _, err := n.AddEdge(SpeciesID(7), ToSpecies(b), regular); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("unknown source: expected ErrUnknownSpecies, got %v", err)
	}
	if _, err := n.AddEdge(a, ToSpecies(SpeciesID(7)), regular); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("unknown target species: expected ErrUnknownSpecies, got %v", err)
	}
	if _, err := n.AddEdge(a, ToEdge(EdgeID(7)), modifier); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("unknown target edge: expected ErrUnknownEdge, got %v", err)
	}

	if _, err := n.AddEdge(a, ToSpecies(b), nil); err == nil {
		t.Error("nil law: expected error")
	}
}

func TestContributionsAndModifiers(t *testing.T) {
	n := New("test")
	a := addSpecies(t, n, "a")
	b := addSpecies(t, n, "b")
	s := addSpecies(t, n, "s")

	e1 := addEdge(t, n, a, ToSpecies(s), LawLinearActivation, ModNone, []float64{2})
	e2 := addEdge(t, n, b, ToSpecies(s), LawHillActivation, ModNone, []float64{1, 1, 2})
	m := addEdge(t, n, b, ToEdge(e1), LawHillInactivation, ModInput, []float64{1, 1, 1, 2})

	contribs := n.Contributions(s)
	if len(contribs) != 2 || contribs[0].ID != e1 || contribs[1].ID != e2 {
		t.Errorf("Contributions(s) = %v, want [%d %d] in insertion order", contribs, e1, e2)
	}
	if len(n.Contributions(a)) != 0 {
		t.Errorf("Contributions(a) should be empty")
	}

	mods := n.Modifiers(e1)
	if len(mods) != 1 || mods[0].ID != m {
		t.Errorf("Modifiers(e1) = %v, want [%d]", mods, m)
	}
	if len(n.Modifiers(e2)) != 0 {
		t.Errorf("Modifiers(e2) should be empty")
	}

	// Modifier targets resolve back to the modified edge.
	edge, err := n.Edge(m)
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	target, ok := edge.Target.Edge()
	if !edge.IsModifier() || !ok || target != e1 {
		t.Errorf("modifier edge target = %v, %v; want %d", target, ok, e1)
	}
}

func TestReadyAndUnsetParams(t *testing.T) {
	n := New("test")
	a := addSpecies(t, n, "a")
	s := addSpecies(t, n, "s")

	law, err := NewRateLaw(LawLinearActivation, ModNone, nil)
	if err != nil {
		t.Fatalf("NewRateLaw: %v", err)
	}
	id, err := n.AddEdge(a, ToSpecies(s), law)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if n.Ready() {
		t.Error("network with unset params reported ready")
	}
	unset := n.UnsetParams()
	if len(unset) != 1 {
		t.Fatalf("UnsetParams = %v, want one entry", unset)
	}

	edge, err := n.Edge(id)
	if err != nil {
		t.Fatalf("Edge: %v", err)
	}
	if err := edge.Law.SetParams([]float64{2}); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if !n.Ready() {
		t.Error("network not ready after setting params")
	}
	if got := n.UnsetParams(); len(got) != 0 {
		t.Errorf("UnsetParams after set = %v, want empty", got)
	}
}

func TestEdgeLabel(t *testing.T) {
	n := New("test")
	a := addSpecies(t, n, "a")
	s := addSpecies(t, n, "s")
	e := addEdge(t, n, a, ToSpecies(s), LawLinearActivation, ModNone, []float64{1})
	m := addEdge(t, n, s, ToEdge(e), LawHillActivation, ModOutput, []float64{1, 1, 2})

	edge, _ := n.Edge(e)
	if got := n.EdgeLabel(edge); got != "a -> s" {
		t.Errorf("EdgeLabel = %q, want %q", got, "a -> s")
	}
	mod, _ := n.Edge(m)
	if got := n.EdgeLabel(mod); got != "s -> edge 0" {
		t.Errorf("EdgeLabel = %q, want %q", got, "s -> edge 0")
	}
}
