package visualization

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
)

// seriesPalette cycles through stroke colors for chart series.
var seriesPalette = []drawing.Color{
	{R: 31, G: 119, B: 180, A: 255}, // blue
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255}, // orange
	{R: 128, G: 0, B: 128, A: 255}, // purple
	{R: 0, G: 139, B: 139, A: 255}, // teal
}

func seriesColor(i int) drawing.Color {
	return seriesPalette[i%len(seriesPalette)]
}

// TimeSeriesChart renders the named species of one cell's trajectory as a
// PNG line chart over the trajectory's time grid. An empty species list
// plots every species the cell carries.
func TimeSeriesChart(tr *trajectory.Trajectory, species []string) ([]byte, error) {
	if tr == nil || tr.Len() < 2 {
		return nil, fmt.Errorf("visualization: chart needs at least 2 time points")
	}
	if len(species) == 0 {
		species = tr.SpeciesNames
	}

	series := make([]chart.Series, 0, len(species))
	for i, name := range species {
		values, err := tr.Species(name)
		if err != nil {
			return nil, err
		}
		series = append(series, chart.ContinuousSeries{
			Name:    name,
			XValues: tr.Times,
			YValues: values,
			Style: chart.Style{
				StrokeColor: seriesColor(i),
				StrokeWidth: 2.0,
			},
		})
	}
	return renderChart(fmt.Sprintf("cell %d", tr.CellID), tr.Times, series)
}

// SpeciesChart renders one species across every trajectory, one series per
// cell. Cells whose network lacks the species are skipped, so mixed
// populations chart cleanly.
func SpeciesChart(trs []*trajectory.Trajectory, species string) ([]byte, error) {
	var series []chart.Series
	var times []float64
	for i, tr := range trs {
		if tr.Len() < 2 {
			return nil, fmt.Errorf("visualization: chart needs at least 2 time points")
		}
		values, err := tr.Species(species)
		if errors.Is(err, trajectory.ErrUnknownSpecies) {
			continue
		}
		if err != nil {
			return nil, err
		}
		times = tr.Times
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("cell %d", tr.CellID),
			XValues: tr.Times,
			YValues: values,
			Style: chart.Style{
				StrokeColor: seriesColor(i),
				StrokeWidth: 2.0,
			},
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %q in any trajectory", trajectory.ErrUnknownSpecies, species)
	}
	return renderChart(species, times, series)
}

func renderChart(title string, times []float64, series []chart.Series) ([]byte, error) {
	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "time",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: times[0], Max: times[len(times)-1]},
			Ticks: timeTicks(times[0], times[len(times)-1]),
		},
		YAxis: chart.YAxis{
			Name:  "level",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// timeTicks places evenly spaced tick marks across [min, max].
func timeTicks(min, max float64) []chart.Tick {
	const n = 6
	ticks := make([]chart.Tick, 0, n+1)
	step := (max - min) / n
	for i := 0; i <= n; i++ {
		v := min + float64(i)*step
		ticks = append(ticks, chart.Tick{
			Value: v,
			Label: strconv.FormatFloat(v, 'g', 4, 64),
		})
	}
	return ticks
}
