package sim

import (
	"fmt"

	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// Diffusion couples a species between connected cells: each target cell
// accumulates rate * (source - own) / d^2 over its connected neighbors, with
// squared Euclidean distances precomputed from cell positions. Pairs at zero
// distance, including a cell with itself, get a zero prefactor and so never
// contribute. Connection and distance matrices are indexed in coupling order
// (see Simulation.GroupOrder).
type Diffusion struct {
	rate float64
	conn [][]bool
	pre  *Matrix
}

// NewDiffusion builds a diffusion law for the given connectivity and cell
// positions, both sized to the simulation's total cell count in coupling
// order. Positions must share one dimensionality.
func NewDiffusion(rate float64, conn [][]bool, positions [][]float64) (*Diffusion, error) {
	n := len(conn)
	if len(positions) != n {
		return nil, fmt.Errorf("sim: diffusion: %d position(s) for %d connection row(s)", len(positions), n)
	}
	for i, row := range conn {
		if len(row) != n {
			return nil, fmt.Errorf("sim: diffusion: connection row %d has %d entries, want %d", i, len(row), n)
		}
	}
	dim := -1
	for i, p := range positions {
		if p == nil {
			return nil, fmt.Errorf("sim: diffusion: cell %d has no position", i)
		}
		if dim < 0 {
			dim = len(p)
		}
		if len(p) != dim {
			return nil, fmt.Errorf("sim: diffusion: cell %d position has %d coordinate(s), want %d", i, len(p), dim)
		}
	}

	d := &Diffusion{rate: rate, pre: NewMatrix(n, n)}
	d.conn = make([][]bool, n)
	for i := range conn {
		d.conn[i] = make([]bool, n)
		copy(d.conn[i], conn[i])
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sq float64
			for k := 0; k < dim; k++ {
				diff := positions[i][k] - positions[j][k]
				sq += diff * diff
			}
			if sq > 0 {
				d.pre.Set(i, j, 1/sq)
			}
		}
	}
	return d, nil
}

// Kind returns "diffusion".
func (d *Diffusion) Kind() string { return "diffusion" }

// Mod returns ModNone: diffusion feeds species, it never gates edges.
func (d *Diffusion) Mod() network.ModKind { return network.ModNone }

// CheckSize verifies the law's matrices match the simulation's cell count.
func (d *Diffusion) CheckSize(totalCells int) error {
	if n := len(d.conn); n != totalCells {
		return fmt.Errorf("sim: diffusion sized for %d cell(s), simulation has %d", n, totalCells)
	}
	return nil
}

// Apply computes per-target-cell diffusion. Row i of x holds the source
// values seen by target cell target.Low+i; unconnected sources contribute
// zero, connected NaN sources propagate.
func (d *Diffusion) Apply(x *Matrix, target Bounds) ([]float64, error) {
	n := len(d.conn)
	if x.Cols() != n {
		return nil, fmt.Errorf("sim: diffusion sized for %d cell(s), input has %d column(s)", n, x.Cols())
	}
	if target.Low < 0 || target.High > n || x.Rows() != target.Len() {
		return nil, fmt.Errorf("sim: diffusion: bounds [%d,%d) do not fit %d row(s) of %d cell(s)", target.Low, target.High, x.Rows(), n)
	}

	out := make([]float64, x.Rows())
	for i := 0; i < x.Rows(); i++ {
		gi := target.Low + i
		own := x.At(i, gi)
		var sum float64
		for j := 0; j < n; j++ {
			if !d.conn[gi][j] {
				continue
			}
			sum += (x.At(i, j) - own) * d.pre.At(gi, j)
		}
		out[i] = d.rate * sum
	}
	return out, nil
}
