package sim

import (
	"fmt"

	"github.com/hermangudjonson/simulation-framework/internal/network"
)

// MeanField averages a species over connected source cells and scales the
// mean by a constant rate. With a nil connection matrix every cell
// contributes, giving a global field. Unlike Diffusion it may carry a
// modifier role, so it can gate edges with a population-level signal.
type MeanField struct {
	rate float64
	mod  network.ModKind
	conn [][]bool
}

// NewMeanField builds a mean-field law. conn may be nil to connect every
// cell; otherwise it must be square in coupling order. mod selects the
// modifier role, ModNone for a regular contribution.
func NewMeanField(rate float64, mod network.ModKind, conn [][]bool) (*MeanField, error) {
	switch mod {
	case network.ModNone, network.ModInput, network.ModOutput:
	default:
		return nil, fmt.Errorf("sim: mean field: unknown modifier role %q", mod)
	}
	m := &MeanField{rate: rate, mod: mod}
	if conn != nil {
		n := len(conn)
		m.conn = make([][]bool, n)
		for i, row := range conn {
			if len(row) != n {
				return nil, fmt.Errorf("sim: mean field: connection row %d has %d entries, want %d", i, len(row), n)
			}
			m.conn[i] = make([]bool, n)
			copy(m.conn[i], row)
		}
	}
	return m, nil
}

// Kind returns "mean_field".
func (m *MeanField) Kind() string { return "mean_field" }

// Mod returns the law's modifier role.
func (m *MeanField) Mod() network.ModKind { return m.mod }

// CheckSize verifies the connection matrix matches the simulation's cell
// count. A nil matrix fits any count.
func (m *MeanField) CheckSize(totalCells int) error {
	if m.conn != nil && len(m.conn) != totalCells {
		return fmt.Errorf("sim: mean field sized for %d cell(s), simulation has %d", len(m.conn), totalCells)
	}
	return nil
}

// Apply computes the connected mean for each target cell. Cells with no
// connected sources receive zero field; connected NaN sources propagate.
func (m *MeanField) Apply(x *Matrix, target Bounds) ([]float64, error) {
	if m.conn != nil && x.Cols() != len(m.conn) {
		return nil, fmt.Errorf("sim: mean field sized for %d cell(s), input has %d column(s)", len(m.conn), x.Cols())
	}
	if target.Low < 0 || target.High > x.Cols() || x.Rows() != target.Len() {
		return nil, fmt.Errorf("sim: mean field: bounds [%d,%d) do not fit %d row(s) of %d cell(s)", target.Low, target.High, x.Rows(), x.Cols())
	}

	out := make([]float64, x.Rows())
	for i := 0; i < x.Rows(); i++ {
		gi := target.Low + i
		var sum float64
		var count int
		for j := 0; j < x.Cols(); j++ {
			if m.conn != nil && !m.conn[gi][j] {
				continue
			}
			sum += x.At(i, j)
			count++
		}
		if count > 0 {
			out[i] = m.rate * sum / float64(count)
		}
	}
	return out, nil
}
