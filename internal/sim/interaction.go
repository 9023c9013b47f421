package sim

import (
	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// InteractionID is a handle to an interaction, unique within one simulation.
type InteractionID int

// Bounds is a cell group's contiguous slice [Low, High) of the coupling
// order, the group-by-group enumeration of all cells used to lay out
// cross-group source vectors.
type Bounds struct {
	Low, High int
}

// Len returns the number of cells in the slice.
func (b Bounds) Len() int { return b.High - b.Low }

// InteractionLaw turns a cross-group source matrix into one contribution per
// target-group cell. Apply receives x with one row per target cell and one
// column per cell in coupling order, plus the target group's bounds so
// spatially indexed laws can locate their rows; it must not retain or mutate
// x beyond the call.
type InteractionLaw interface {
	// Kind returns the law's wire name, e.g. "diffusion".
	Kind() string

	// Mod returns the law's modifier role. Laws with a role may only
	// target edges or other interactions; laws without one may only
	// target species.
	Mod() network.ModKind

	// Apply computes the per-target-cell contribution.
	Apply(x *Matrix, target Bounds) ([]float64, error)
}

// SizeChecker is implemented by interaction laws whose matrices are sized to
// the simulation's total cell count. Readiness checks use it to reject
// mis-sized laws before integration starts.
type SizeChecker interface {
	CheckSize(totalCells int) error
}

type interactionTargetKind int

const (
	targetSpeciesName interactionTargetKind = iota
	targetNetworkEdge
	targetInteraction
)

// InteractionTarget is the tagged destination of an interaction: a species
// name for regular cross-group contributions, or an edge within one network
// or another interaction for modifiers.
type InteractionTarget struct {
	kind        interactionTargetKind
	species     string
	network     NetworkID
	edge        network.EdgeID
	interaction InteractionID
}

// CoupleTo targets every network's species with the given name. Networks
// lacking the species are unaffected.
func CoupleTo(species string) InteractionTarget {
	return InteractionTarget{kind: targetSpeciesName, species: species}
}

// ModifyEdge targets an edge inside one registered network, making the
// interaction an external modifier of that edge.
func ModifyEdge(net NetworkID, edge network.EdgeID) InteractionTarget {
	return InteractionTarget{kind: targetNetworkEdge, network: net, edge: edge}
}

// ModifyInteraction targets a previously registered interaction.
func ModifyInteraction(id InteractionID) InteractionTarget {
	return InteractionTarget{kind: targetInteraction, interaction: id}
}

// IsModifier reports whether the target is an edge or interaction rather
// than a species.
func (t InteractionTarget) IsModifier() bool { return t.kind != targetSpeciesName }

// SpeciesName returns the targeted species name, with ok false for modifier
// targets.
func (t InteractionTarget) SpeciesName() (string, bool) {
	return t.species, t.kind == targetSpeciesName
}

// NetworkEdge returns the targeted (network, edge) pair, with ok false for
// other target kinds.
func (t InteractionTarget) NetworkEdge() (NetworkID, network.EdgeID, bool) {
	return t.network, t.edge, t.kind == targetNetworkEdge
}

// Interaction returns the targeted interaction id, with ok false for other
// target kinds.
func (t InteractionTarget) Interaction() (InteractionID, bool) {
	return t.interaction, t.kind == targetInteraction
}

// Interaction couples cell groups: the named source species, gathered across
// every group in coupling order, feeds a species or gates an edge in the
// target. Source values for groups whose network lacks the species are NaN,
// which propagates through arithmetic rather than pretending absence is zero.
type Interaction struct {
	ID     InteractionID
	From   string
	Target InteractionTarget
	Law    InteractionLaw
}

// IsModifier reports whether the interaction gates an edge or interaction
// rather than feeding a species.
func (ia *Interaction) IsModifier() bool { return ia.Target.IsModifier() }

// Mod returns the interaction law's modifier role, ModNone for regular
// interactions.
func (ia *Interaction) Mod() network.ModKind { return ia.Law.Mod() }
