// Package network defines reusable reaction-network templates: ordered named
// species evolved by coupled ODEs, connected by rate-law edges. An edge
// either contributes to a species' derivative or modifies another edge,
// gating its input or output. A Network owns no cell state; one template is
// shared by every cell instantiated from it.
package network

import "fmt"

// SpeciesID is a positional handle to a species within one network. The id
// doubles as the species' column index in any state matrix laid out for this
// network, so declaration order fixes the state layout.
type SpeciesID int

// EdgeID is a handle to an edge within one network. Ids are dense and
// assigned in insertion order by a per-network counter.
type EdgeID int

// Species is a dynamic quantity tracked per cell. Degradation, when present,
// is represented uniformly as a self-loop edge carrying the same law.
type Species struct {
	ID   SpeciesID
	Name string

	// Degradation is shared with the species' self-loop degradation edge;
	// nil when the species does not degrade.
	Degradation *RateLaw
}

// Degrades reports whether the species carries a degradation law.
func (s *Species) Degrades() bool { return s.Degradation != nil }

// targetKind discriminates the EdgeTarget variants.
type targetKind int

const (
	targetSpecies targetKind = iota
	targetEdge
)

// EdgeTarget is the tagged destination of an edge: a species for regular
// contributions, another edge for modifiers.
type EdgeTarget struct {
	kind    targetKind
	species SpeciesID
	edge    EdgeID
}

// ToSpecies targets a species' derivative.
func ToSpecies(id SpeciesID) EdgeTarget {
	return EdgeTarget{kind: targetSpecies, species: id}
}

// ToEdge targets another edge, making the owning edge a modifier.
func ToEdge(id EdgeID) EdgeTarget {
	return EdgeTarget{kind: targetEdge, edge: id}
}

// IsEdge reports whether the target is another edge.
func (t EdgeTarget) IsEdge() bool { return t.kind == targetEdge }

// Species returns the species target, with ok false for edge targets.
func (t EdgeTarget) Species() (SpeciesID, bool) {
	return t.species, t.kind == targetSpecies
}

// Edge returns the edge target, with ok false for species targets.
func (t EdgeTarget) Edge() (EdgeID, bool) {
	return t.edge, t.kind == targetEdge
}

// Edge is a directed interaction inside one network: the source species'
// level, transformed by Law, contributes either to a species' derivative or
// to another edge's resolution. Edges are immutable once added, except for
// deferred SetParams on their law.
type Edge struct {
	ID     EdgeID
	From   SpeciesID
	Target EdgeTarget
	Law    *RateLaw
}

// IsModifier reports whether the edge gates another edge rather than
// feeding a species.
func (e *Edge) IsModifier() bool { return e.Law.Mod() != ModNone }

// Mod returns the edge's modifier role, ModNone for regular edges.
func (e *Edge) Mod() ModKind { return e.Law.Mod() }

// Network is a reaction-network template over named species.
type Network struct {
	name     string
	species  []*Species
	names    map[string]SpeciesID
	edges    []*Edge
	nextEdge EdgeID
}

// New creates an empty network. The name labels diagnostics and rendered
// graphs; it carries no semantics.
func New(name string) *Network {
	return &Network{
		name:  name,
		names: make(map[string]SpeciesID),
	}
}

// Name returns the network's label.
func (n *Network) Name() string { return n.name }

// AddSpecies registers a species under a unique name. A non-empty
// degradation kind attaches the degradation law and its self-loop edge in
// the same call; pass the zero LawKind for a non-degrading species.
func (n *Network) AddSpecies(name string, degradation LawKind, params []float64) (SpeciesID, error) {
	if _, ok := n.names[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateSpecies, name)
	}
	id := SpeciesID(len(n.species))
	n.species = append(n.species, &Species{ID: id, Name: name})
	n.names[name] = id
	if degradation != "" {
		if _, err := n.SetDegradation(id, degradation, params); err != nil {
			return id, err
		}
	}
	return id, nil
}

// SetDegradation attaches a degradation law to an existing species. The law
// is modeled as one more contributing edge, a self-loop carrying the shared
// law instance, so readiness and resolution treat degradation uniformly.
// Each species takes at most one degradation.
func (n *Network) SetDegradation(id SpeciesID, kind LawKind, params []float64) (EdgeID, error) {
	sp, err := n.Species(id)
	if err != nil {
		return 0, err
	}
	if sp.Degradation != nil {
		return 0, fmt.Errorf("%w: species %q", ErrDegradationSet, sp.Name)
	}
	if kind != LawLinearDegradation && kind != LawParabolicDegradation {
		return 0, fmt.Errorf("%w: %s", ErrDegradationKind, kind)
	}
	law, err := NewRateLaw(kind, ModNone, params)
	if err != nil {
		return 0, err
	}
	sp.Degradation = law
	return n.AddEdge(id, ToSpecies(id), law)
}

// AddEdge inserts an edge from a species to the given target. Modifier laws
// must target edges and regular laws must target species; the target must
// already exist. Requiring existing targets keeps the modifier graph acyclic
// by construction, so resolution cannot recurse unboundedly.
func (n *Network) AddEdge(from SpeciesID, target EdgeTarget, law *RateLaw) (EdgeID, error) {
	if law == nil {
		return 0, fmt.Errorf("network: nil law on edge from species %d", from)
	}
	if _, err := n.Species(from); err != nil {
		return 0, err
	}
	if isMod := law.Mod() != ModNone; isMod != target.IsEdge() {
		return 0, fmt.Errorf("%w: law %s (mod %q)", ErrTargetKind, law.Kind(), law.Mod())
	}
	if tid, ok := target.Edge(); ok {
		if _, err := n.Edge(tid); err != nil {
			return 0, err
		}
	} else if sid, ok := target.Species(); ok {
		if _, err := n.Species(sid); err != nil {
			return 0, err
		}
	}
	id := n.nextEdge
	n.nextEdge++
	n.edges = append(n.edges, &Edge{ID: id, From: from, Target: target, Law: law})
	return id, nil
}

// SpeciesID resolves a species name to its positional id.
func (n *Network) SpeciesID(name string) (SpeciesID, error) {
	id, ok := n.names[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q in network %q", ErrUnknownSpecies, name, n.name)
	}
	return id, nil
}

// HasSpecies reports whether the network tracks a species of that name.
func (n *Network) HasSpecies(name string) bool {
	_, ok := n.names[name]
	return ok
}

// Species returns the species with the given id.
func (n *Network) Species(id SpeciesID) (*Species, error) {
	if id < 0 || int(id) >= len(n.species) {
		return nil, fmt.Errorf("%w: id %d in network %q", ErrUnknownSpecies, id, n.name)
	}
	return n.species[id], nil
}

// Edge returns the edge with the given id.
func (n *Network) Edge(id EdgeID) (*Edge, error) {
	if id < 0 || int(id) >= len(n.edges) {
		return nil, fmt.Errorf("%w: id %d in network %q", ErrUnknownEdge, id, n.name)
	}
	return n.edges[id], nil
}

// NumSpecies returns the species count, the width of this network's state
// matrices.
func (n *Network) NumSpecies() int { return len(n.species) }

// SpeciesNames returns the species names in declaration order.
func (n *Network) SpeciesNames() []string {
	out := make([]string, len(n.species))
	for i, s := range n.species {
		out[i] = s.Name
	}
	return out
}

// Edges returns the network's edges in insertion order. The slice is a copy;
// the edges are shared.
func (n *Network) Edges() []*Edge {
	out := make([]*Edge, len(n.edges))
	copy(out, n.edges)
	return out
}

// Contributions returns every regular edge feeding the species' derivative,
// degradation self-loops included, in insertion order.
func (n *Network) Contributions(id SpeciesID) []*Edge {
	var out []*Edge
	for _, e := range n.edges {
		if sid, ok := e.Target.Species(); ok && sid == id {
			out = append(out, e)
		}
	}
	return out
}

// Modifiers returns every modifier edge targeting the given edge, in
// insertion order.
func (n *Network) Modifiers(id EdgeID) []*Edge {
	var out []*Edge
	for _, e := range n.edges {
		if eid, ok := e.Target.Edge(); ok && eid == id {
			out = append(out, e)
		}
	}
	return out
}

// Ready reports whether every law in the network has parameters set.
func (n *Network) Ready() bool { return len(n.UnsetParams()) == 0 }

// UnsetParams describes every law still missing parameters, one entry per
// offending edge. Degradation laws are covered through their self-loop
// edges. An empty result means the network is ready to simulate.
func (n *Network) UnsetParams() []string {
	var out []string
	for _, e := range n.edges {
		if !e.Law.ParamsSet() {
			out = append(out, fmt.Sprintf("network %q edge %d (%s, %s)", n.name, e.ID, n.EdgeLabel(e), e.Law.Kind()))
		}
	}
	return out
}

// EdgeLabel renders a short "from -> to" description of an edge for
// diagnostics and graph output.
func (n *Network) EdgeLabel(e *Edge) string {
	from := fmt.Sprintf("species %d", e.From)
	if sp, err := n.Species(e.From); err == nil {
		from = sp.Name
	}
	if sid, ok := e.Target.Species(); ok {
		to := fmt.Sprintf("species %d", sid)
		if sp, err := n.Species(sid); err == nil {
			to = sp.Name
		}
		return from + " -> " + to
	}
	eid, _ := e.Target.Edge()
	return fmt.Sprintf("%s -> edge %d", from, eid)
}
