package visualization

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleTrajectory(cellID int) *trajectory.Trajectory {
	return trajectory.New(cellID,
		[]string{"a", "b"},
		[]float64{0, 1, 2},
		[][]float64{{1, 2}, {2, 3}, {3, 4}})
}

func TestTimeSeriesChart(t *testing.T) {
	png, err := TimeSeriesChart(sampleTrajectory(0), []string{"a"})
	if err != nil {
		t.Fatalf("TimeSeriesChart: %v", err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Errorf("output does not start with a PNG header: % x", png[:8])
	}
}

func TestTimeSeriesChart_AllSpeciesByDefault(t *testing.T) {
	png, err := TimeSeriesChart(sampleTrajectory(0), nil)
	if err != nil {
		t.Fatalf("TimeSeriesChart: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty chart output")
	}
}

func TestTimeSeriesChart_Errors(t *testing.T) {
	if _, err := TimeSeriesChart(sampleTrajectory(0), []string{"ghost"}); !errors.Is(err, trajectory.ErrUnknownSpecies) {
		t.Errorf("got %v, want ErrUnknownSpecies", err)
	}

	short := trajectory.New(0, []string{"a"}, []float64{0}, [][]float64{{1}})
	if _, err := TimeSeriesChart(short, nil); err == nil {
		t.Error("accepted a single-point trajectory")
	}
	if _, err := TimeSeriesChart(nil, nil); err == nil {
		t.Error("accepted a nil trajectory")
	}
}

func TestSpeciesChart_SkipsCellsWithoutSpecies(t *testing.T) {
	other := trajectory.New(1,
		[]string{"s"},
		[]float64{0, 1, 2},
		[][]float64{{5}, {4}, {3}})

	png, err := SpeciesChart([]*trajectory.Trajectory{sampleTrajectory(0), other}, "a")
	if err != nil {
		t.Fatalf("SpeciesChart: %v", err)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Error("output is not a PNG")
	}

	if _, err := SpeciesChart([]*trajectory.Trajectory{sampleTrajectory(0), other}, "ghost"); !errors.Is(err, trajectory.ErrUnknownSpecies) {
		t.Errorf("got %v, want ErrUnknownSpecies", err)
	}
}
