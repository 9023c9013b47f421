package sim

import "fmt"

// Matrix is a dense row-major float64 matrix. It backs per-group state and
// derivative blocks during evaluation. Column extraction always copies, so
// callers may scale the result in place without corrupting shared state.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix returns a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// MatrixFromSlice copies data (length rows*cols, row-major) into a new matrix.
func MatrixFromSlice(rows, cols int, data []float64) (*Matrix, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("sim: matrix data length %d does not match %dx%d", len(data), rows, cols)
	}
	m := NewMatrix(rows, cols)
	copy(m.data, data)
	return m, nil
}

// Tile repeats row as every row of a new rows x len(row) matrix.
func Tile(row []float64, rows int) *Matrix {
	m := NewMatrix(rows, len(row))
	for i := 0; i < rows; i++ {
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix) Cols() int { return m.cols }

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set assigns the element at row i, column j.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// Col returns a fresh copy of column j.
func (m *Matrix) Col(j int) []float64 {
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

// Row returns a fresh copy of row i.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// AddToCol accumulates v into column j element-wise. v must have one entry
// per row.
func (m *Matrix) AddToCol(j int, v []float64) {
	for i := 0; i < m.rows; i++ {
		m.data[i*m.cols+j] += v[i]
	}
}

// ScaleRows multiplies row i through by v[i]. v must have one entry per row.
func (m *Matrix) ScaleRows(v []float64) {
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			m.data[i*m.cols+j] *= v[i]
		}
	}
}

// mulInto multiplies dst element-wise by v in place.
func mulInto(dst, v []float64) {
	for i := range dst {
		dst[i] *= v[i]
	}
}
