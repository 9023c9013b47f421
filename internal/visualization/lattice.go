package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellSize     = 24 // square tile edge in pixels
	headerHeight = 16 // label strip above the tiles
)

// LatticeFrame draws one species' levels across a regular 1-D or 2-D cell
// lattice as colored tiles: low levels black, through red, to yellow at the
// maximum. NaN cells render gray, grid slots without a cell light gray. The
// label goes in a header strip above the tiles. Positions must snap to a
// regular grid.
func LatticeFrame(positions [][]float64, values []float64, label string) (*image.RGBA, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("visualization: no cells")
	}
	if len(positions) != len(values) {
		return nil, fmt.Errorf("visualization: %d positions for %d values", len(positions), len(values))
	}
	dims := len(positions[0])
	if dims != 1 && dims != 2 {
		return nil, fmt.Errorf("visualization: lattice must be 1-D or 2-D, got %d-D", dims)
	}
	for i, p := range positions {
		if len(p) != dims {
			return nil, fmt.Errorf("visualization: cell %d is %d-D, want %d-D", i, len(p), dims)
		}
	}

	xs := make([]float64, len(positions))
	ys := make([]float64, len(positions))
	for i, p := range positions {
		xs[i] = p[0]
		if dims == 2 {
			ys[i] = p[1]
		}
	}
	cols, colOf, err := snapAxis(xs)
	if err != nil {
		return nil, err
	}
	rows, rowOf, err := snapAxis(ys)
	if err != nil {
		return nil, err
	}

	vmin, vmax := finiteRange(values)

	img := image.NewRGBA(image.Rect(0, 0, cols*cellSize, headerHeight+rows*cellSize))
	fillRect(img, 0, 0, cols*cellSize, headerHeight, color.RGBA{255, 255, 255, 255})
	empty := color.RGBA{220, 220, 220, 255}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			fillRect(img, c*cellSize, headerHeight+r*cellSize, cellSize, cellSize, empty)
		}
	}

	seen := make(map[[2]int]bool, len(values))
	for i, v := range values {
		slot := [2]int{rowOf[i], colOf[i]}
		if seen[slot] {
			return nil, fmt.Errorf("visualization: cells %v collide on one lattice slot", slot)
		}
		seen[slot] = true
		fillRect(img, colOf[i]*cellSize, headerHeight+rowOf[i]*cellSize, cellSize, cellSize, heatColor(v, vmin, vmax))
	}

	addLabel(img, 4, 12, label, color.RGBA{0, 0, 0, 255})
	return img, nil
}

// snapAxis maps coordinates onto integer lattice indices, inferring the
// spacing from the smallest positive gap between distinct values.
func snapAxis(coords []float64) (int, []int, error) {
	uniq := append([]float64(nil), coords...)
	sort.Float64s(uniq)
	min := uniq[0]
	spacing := 0.0
	for i := 1; i < len(uniq); i++ {
		if d := uniq[i] - uniq[i-1]; d > 0 && (spacing == 0 || d < spacing) {
			spacing = d
		}
	}
	if spacing == 0 {
		// All coordinates identical: a single row or column.
		return 1, make([]int, len(coords)), nil
	}

	indices := make([]int, len(coords))
	size := 1
	for i, v := range coords {
		idx := math.Round((v - min) / spacing)
		if math.Abs(v-(min+idx*spacing)) > spacing*1e-6 {
			return 0, nil, fmt.Errorf("visualization: position %g does not sit on a regular lattice", v)
		}
		indices[i] = int(idx)
		if int(idx)+1 > size {
			size = int(idx) + 1
		}
	}
	return size, indices, nil
}

// finiteRange returns the min and max over finite values, (0, 0) when none.
func finiteRange(values []float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min > max {
		return 0, 0
	}
	return min, max
}

// heatColor maps a level onto the black-red-yellow ramp. NaN is gray.
func heatColor(v, vmin, vmax float64) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{128, 128, 128, 255}
	}
	t := 0.0
	if vmax > vmin {
		t = (v - vmin) / (vmax - vmin)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		return color.RGBA{uint8(255 * 2 * t), 0, 0, 255}
	}
	return color.RGBA{255, uint8(255 * (2*t - 1)), 0, 255}
}

func fillRect(img *image.RGBA, x, y, w, h int, col color.Color) {
	for i := x; i < x+w; i++ {
		for j := y; j < y+h; j++ {
			img.Set(i, j, col)
		}
	}
}

// addLabel draws a text label onto an image at the given baseline position.
func addLabel(img *image.RGBA, x, y int, label string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
