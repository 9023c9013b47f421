// Package trajectory holds per-cell simulation results: the time course of
// every species in a cell's network, plus CSV export for downstream tooling.
package trajectory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnknownSpecies reports a species name absent from a trajectory.
var ErrUnknownSpecies = errors.New("trajectory: unknown species")

// Trajectory is one cell's simulated time course. States holds one row per
// time point, columns in the cell's network species declaration order.
type Trajectory struct {
	CellID       int
	SpeciesNames []string
	Times        []float64
	States       [][]float64
}

// New builds a trajectory, taking ownership of the given slices.
func New(cellID int, speciesNames []string, times []float64, states [][]float64) *Trajectory {
	return &Trajectory{
		CellID:       cellID,
		SpeciesNames: speciesNames,
		Times:        times,
		States:       states,
	}
}

// Len returns the number of time points.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// At returns the state row at time index i. The row is shared with the
// trajectory, not copied.
func (tr *Trajectory) At(i int) []float64 { return tr.States[i] }

// Final returns the state row at the last time point.
func (tr *Trajectory) Final() []float64 { return tr.States[len(tr.States)-1] }

// Species returns a fresh copy of one species' time series.
func (tr *Trajectory) Species(name string) ([]float64, error) {
	for j, n := range tr.SpeciesNames {
		if n != name {
			continue
		}
		out := make([]float64, len(tr.States))
		for i, row := range tr.States {
			out[i] = row[j]
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q in cell %d", ErrUnknownSpecies, name, tr.CellID)
}

// WriteCSV writes trajectories in wide form: a time column followed by one
// c<id>.<species> column per cell and species. All trajectories must share
// one time grid.
func WriteCSV(w io.Writer, trajs []*Trajectory) error {
	if len(trajs) == 0 {
		return fmt.Errorf("trajectory: nothing to write")
	}
	points := trajs[0].Len()
	header := []string{"time"}
	for _, tr := range trajs {
		if tr == nil {
			return fmt.Errorf("trajectory: nil trajectory")
		}
		if tr.Len() != points {
			return fmt.Errorf("trajectory: cell %d has %d time point(s), cell %d has %d", trajs[0].CellID, points, tr.CellID, tr.Len())
		}
		for _, name := range tr.SpeciesNames {
			header = append(header, fmt.Sprintf("c%d.%s", tr.CellID, name))
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, 0, len(header))
	for i := 0; i < points; i++ {
		row = row[:0]
		row = append(row, strconv.FormatFloat(trajs[0].Times[i], 'g', -1, 64))
		for _, tr := range trajs {
			for _, v := range tr.States[i] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
