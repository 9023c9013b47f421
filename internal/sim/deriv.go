package sim

import (
	"fmt"

	"github.com/hermangudjonson/simulation-framework/internal/integrate"
	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// layout describes the flat state vector: per-group matrix dimensions, flat
// offsets, coupling-order cell bounds, and totals. The flat vector is the
// concatenation, group by group in registration order, of each group's
// row-major (cells x species) matrix, rows in membership order.
type layout struct {
	dims    [][2]int // per group: cells, species
	offsets []int    // per group: offset into the flat vector
	bounds  []Bounds // per group: slice of the coupling order
	total   int      // cells across all groups
	flat    int      // flat vector length
}

// computeLayout derives the layout from current group membership. It is
// recomputed on every derivative evaluation rather than cached, so the
// packing always reflects the groups as they stand.
func (s *Simulation) computeLayout() layout {
	lay := layout{
		dims:    make([][2]int, len(s.networks)),
		offsets: make([]int, len(s.networks)),
		bounds:  make([]Bounds, len(s.networks)),
	}
	for g, net := range s.networks {
		cells := len(s.groups[g])
		species := net.NumSpecies()
		lay.dims[g] = [2]int{cells, species}
		lay.offsets[g] = lay.flat
		lay.bounds[g] = Bounds{Low: lay.total, High: lay.total + cells}
		lay.total += cells
		lay.flat += cells * species
	}
	return lay
}

// flattenInitial packs every cell's initial conditions into a fresh flat
// vector following lay.
func (s *Simulation) flattenInitial(lay layout) []float64 {
	y0 := make([]float64, lay.flat)
	for g := range s.networks {
		species := lay.dims[g][1]
		base := lay.offsets[g]
		for r, id := range s.groups[g] {
			copy(y0[base+r*species:base+(r+1)*species], s.cells[id].ic)
		}
	}
	return y0
}

// reshapeState splits a flat vector into one owned matrix per group,
// inverting flattenInitial exactly.
func reshapeState(lay layout, y []float64) ([]*Matrix, error) {
	if len(y) != lay.flat {
		return nil, fmt.Errorf("sim: state length %d does not match layout length %d", len(y), lay.flat)
	}
	mats := make([]*Matrix, len(lay.dims))
	for g, d := range lay.dims {
		m, err := MatrixFromSlice(d[0], d[1], y[lay.offsets[g]:lay.offsets[g]+d[0]*d[1]])
		if err != nil {
			return nil, err
		}
		mats[g] = m
	}
	return mats, nil
}

// derivative returns the flat ODE right-hand side. Each call reshapes the
// state, sums every species' internal edges and cross-group interactions
// into a fresh per-group derivative matrix, and flattens the result. The
// function is pure in (t, y): integrators may call it at arbitrary trial
// states in any order.
func (s *Simulation) derivative() integrate.Derivative {
	return func(t float64, y []float64) ([]float64, error) {
		lay := s.computeLayout()
		states, err := reshapeState(lay, y)
		if err != nil {
			return nil, err
		}
		st := &evalState{states: states, lay: lay}

		dydt := make([]float64, lay.flat)
		for g, net := range s.networks {
			out := NewMatrix(lay.dims[g][0], lay.dims[g][1])
			names := net.SpeciesNames()
			for j := 0; j < net.NumSpecies(); j++ {
				for _, e := range net.Contributions(network.SpeciesID(j)) {
					v, err := s.resolveEdge(st, NetworkID(g), e)
					if err != nil {
						return nil, err
					}
					out.AddToCol(j, v)
				}
				for _, ia := range s.interactions {
					if name, ok := ia.Target.SpeciesName(); !ok || name != names[j] {
						continue
					}
					v, err := s.resolveInteraction(st, NetworkID(g), ia)
					if err != nil {
						return nil, err
					}
					out.AddToCol(j, v)
				}
			}
			copy(dydt[lay.offsets[g]:lay.offsets[g]+len(out.data)], out.data)
		}
		return dydt, nil
	}
}
