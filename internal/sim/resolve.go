package sim

import (
	"fmt"
	"math"

	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// evalState carries one derivative evaluation's working data: the per-group
// state matrices reshaped from the flat vector, and the layout they follow.
type evalState struct {
	states []*Matrix
	lay    layout
}

// modifierRef points at one modifier of an edge or interaction: either a
// network-local modifier edge or an external interaction, never both.
type modifierRef struct {
	mod  network.ModKind
	edge *network.Edge
	ia   *Interaction
}

// edgeModifiers collects the modifiers gating a network edge for group g:
// the owning network's modifier edges first, then interactions targeting the
// edge in that network.
func (s *Simulation) edgeModifiers(g NetworkID, e *network.Edge) []modifierRef {
	var refs []modifierRef
	for _, m := range s.networks[g].Modifiers(e.ID) {
		refs = append(refs, modifierRef{mod: m.Mod(), edge: m})
	}
	for _, ia := range s.interactions {
		if net, edge, ok := ia.Target.NetworkEdge(); ok && net == g && edge == e.ID {
			refs = append(refs, modifierRef{mod: ia.Mod(), ia: ia})
		}
	}
	return refs
}

// interactionModifiers collects interactions gating another interaction.
func (s *Simulation) interactionModifiers(target *Interaction) []modifierRef {
	var refs []modifierRef
	for _, ia := range s.interactions {
		if id, ok := ia.Target.Interaction(); ok && id == target.ID {
			refs = append(refs, modifierRef{mod: ia.Mod(), ia: ia})
		}
	}
	return refs
}

// resolveModifier dispatches a modifier through the same resolution path as
// regular contributions, so every recursion shares one entry point.
func (s *Simulation) resolveModifier(st *evalState, g NetworkID, ref modifierRef) ([]float64, error) {
	if ref.edge != nil {
		return s.resolveEdge(st, g, ref.edge)
	}
	return s.resolveInteraction(st, g, ref.ia)
}

// resolveEdge evaluates a network edge's per-cell contribution for group g.
// Input modifiers scale an owned copy of the source column before the rate
// law runs; output modifiers scale the law's result. Contributions are never
// cached: an edge referenced by several modifier chains is re-resolved each
// time, which is sound because the computation is pure.
func (s *Simulation) resolveEdge(st *evalState, g NetworkID, e *network.Edge) ([]float64, error) {
	x := st.states[g].Col(int(e.From))
	mods := s.edgeModifiers(g, e)

	for _, ref := range mods {
		if ref.mod != network.ModInput {
			continue
		}
		v, err := s.resolveModifier(st, g, ref)
		if err != nil {
			return nil, err
		}
		mulInto(x, v)
	}

	y, err := e.Law.Apply(x)
	if err != nil {
		return nil, fmt.Errorf("edge %s in network %q: %w", s.networks[g].EdgeLabel(e), s.networks[g].Name(), err)
	}

	for _, ref := range mods {
		if ref.mod != network.ModOutput {
			continue
		}
		v, err := s.resolveModifier(st, g, ref)
		if err != nil {
			return nil, err
		}
		mulInto(y, v)
	}
	return y, nil
}

// resolveInteraction evaluates an interaction's per-cell contribution to
// group g. The source species is gathered across every group in coupling
// order, NaN where a network lacks it, and tiled once per target cell. Input
// modifiers scale each target cell's row; the law collapses the matrix to a
// per-target-cell vector using the group's bounds; output modifiers scale
// that vector.
func (s *Simulation) resolveInteraction(st *evalState, g NetworkID, ia *Interaction) ([]float64, error) {
	xdata := make([]float64, st.lay.total)
	for h, net := range s.networks {
		b := st.lay.bounds[h]
		if id, err := net.SpeciesID(ia.From); err == nil {
			copy(xdata[b.Low:b.High], st.states[h].Col(int(id)))
		} else {
			for i := b.Low; i < b.High; i++ {
				xdata[i] = math.NaN()
			}
		}
	}

	target := st.lay.bounds[g]
	x := Tile(xdata, target.Len())
	mods := s.interactionModifiers(ia)

	for _, ref := range mods {
		if ref.mod != network.ModInput {
			continue
		}
		v, err := s.resolveModifier(st, g, ref)
		if err != nil {
			return nil, err
		}
		x.ScaleRows(v)
	}

	y, err := ia.Law.Apply(x, target)
	if err != nil {
		return nil, fmt.Errorf("interaction %d (%s from %q): %w", ia.ID, ia.Law.Kind(), ia.From, err)
	}
	if len(y) != target.Len() {
		return nil, fmt.Errorf("interaction %d (%s) returned %d value(s) for %d target cell(s)", ia.ID, ia.Law.Kind(), len(y), target.Len())
	}

	for _, ref := range mods {
		if ref.mod != network.ModOutput {
			continue
		}
		v, err := s.resolveModifier(st, g, ref)
		if err != nil {
			return nil, err
		}
		mulInto(y, v)
	}
	return y, nil
}
