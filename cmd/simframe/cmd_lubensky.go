package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hermangudjonson/simulation-framework/internal/logging"
	"github.com/hermangudjonson/simulation-framework/internal/network"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
	"github.com/hermangudjonson/simulation-framework/internal/visualization"
	"github.com/spf13/cobra"
)

// Parameters of Lubensky, Pennington, Shraiman and Baker's one-dimensional
// model of sensory organ precursor selection in the fly notum (PNAS 2011).
const (
	bristleAa, bristleAs, bristleAh, bristleAu = 0.65, 0.5, 1.5, 2.2
	bristleTs, bristleTh, bristleTu            = 4.0, 101.0, 2.0
	bristleS, bristleH, bristleU               = 0.57, 0.0088, 4e-6
	bristleG, bristleF                         = 0.8, 0.6
	bristleDh, bristleDu                       = 200.0, 0.16
)

func newLubenskyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lubensky",
		Short: "Run the built-in Lubensky bristle-patterning demo",
		Long: `Build and integrate a row of cells running the Lubensky bristle model:
the anterior cell is primed to commit, a diffusing activator h recruits
cells down the row, and a short-range inhibitor u vetoes h's input next
to committed cells, selecting an evenly spaced subset. The demo builds
the model through the library API rather than a model file and writes
trajectories, a chart, and a lattice video of the commitment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, _ := cmd.Flags().GetInt("cells")
			duration, _ := cmd.Flags().GetFloat64("duration")
			points, _ := cmd.Flags().GetInt("points")
			outDir, _ := cmd.Flags().GetString("out")
			fps, _ := cmd.Flags().GetInt("fps")
			level, _ := cmd.Flags().GetString("log-level")

			if cells < 2 {
				return fmt.Errorf("need at least 2 cells, got %d", cells)
			}
			if points < 2 {
				return fmt.Errorf("need at least 2 output points, got %d", points)
			}

			logger := logging.NewLogger(level, cmd.ErrOrStderr())

			s, err := buildBristleRow(cells)
			if err != nil {
				return fmt.Errorf("build model: %w", err)
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			runs := logging.NewRunLogger(outDir, level)
			defer runs.Close()
			s.SetLogger(logger, runs)

			times := make([]float64, points)
			for i := range times {
				times[i] = duration * float64(i) / float64(points-1)
			}

			start := time.Now()
			trs, err := s.Simulate(cmd.Context(), times)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
			logger.Info("bristle run complete",
				"cells", cells,
				"duration", duration,
				"elapsed", time.Since(start))

			csvPath := filepath.Join(outDir, "trajectories.csv")
			if err := writeTrajectoryCSV(csvPath, trs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trajectories written to %s\n", csvPath)

			png, err := visualization.SpeciesChart(trs, "a")
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}
			chartPath := filepath.Join(outDir, "chart_a.png")
			if err := os.WriteFile(chartPath, png, 0644); err != nil {
				return fmt.Errorf("write %s: %w", chartPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", chartPath)

			videoPath := filepath.Join(outDir, "a.avi")
			if err := writeSpeciesVideo(videoPath, s, trs, "a", fps); err != nil {
				return fmt.Errorf("video: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Video written to %s\n", videoPath)

			return nil
		},
	}

	cmd.Flags().Int("cells", 30, "Number of cells in the row")
	cmd.Flags().Float64("duration", 150, "Simulated time span")
	cmd.Flags().Int("points", 151, "Number of output time points")
	cmd.Flags().StringP("out", "o", "lubensky-out", "Output directory")
	cmd.Flags().Int("fps", 10, "Video frames per second")

	return cmd
}

// buildBristleRow assembles the bristle network and a primed row of cells
// through the library API.
func buildBristleRow(cells int) (*sim.Simulation, error) {
	net := network.New("bristle")

	a, err := net.AddSpecies("a", network.LawLinearDegradation, []float64{1})
	if err != nil {
		return nil, err
	}
	sp, err := net.AddSpecies("s", network.LawLinearDegradation, []float64{1 / bristleTs})
	if err != nil {
		return nil, err
	}
	h, err := net.AddSpecies("h", network.LawLinearDegradation, []float64{1 / bristleTh})
	if err != nil {
		return nil, err
	}
	u, err := net.AddSpecies("u", network.LawLinearDegradation, []float64{1 / bristleTu})
	if err != nil {
		return nil, err
	}

	type edgeDef struct {
		from   network.SpeciesID
		to     network.SpeciesID
		params []float64
	}
	for _, e := range []edgeDef{
		{a, a, []float64{1, bristleAa, 4}},
		{a, sp, []float64{1 / bristleTs, bristleAs, 4}},
		{sp, a, []float64{bristleF, bristleS, 4}},
		{a, u, []float64{1 / bristleTu, bristleAu, 8}},
		{a, h, []float64{1 / bristleTh, bristleAh, 8}},
	} {
		law, err := network.NewRateLaw(network.LawHillActivation, network.ModNone, e.params)
		if err != nil {
			return nil, err
		}
		if _, err := net.AddEdge(e.from, network.ToSpecies(e.to), law); err != nil {
			return nil, err
		}
	}

	// h activates a through a gate that u closes.
	haLaw, err := network.NewRateLaw(network.LawHillActivation, network.ModNone, []float64{bristleG, bristleH, 4})
	if err != nil {
		return nil, err
	}
	ha, err := net.AddEdge(h, network.ToSpecies(a), haLaw)
	if err != nil {
		return nil, err
	}
	gate, err := network.NewRateLaw(network.LawHillInactivation, network.ModOutput, []float64{1, 1, bristleU, 6})
	if err != nil {
		return nil, err
	}
	if _, err := net.AddEdge(u, network.ToEdge(ha), gate); err != nil {
		return nil, err
	}

	s := sim.New(sim.DefaultConfig())
	netID, err := s.AddNetwork(net)
	if err != nil {
		return nil, err
	}

	ids := make([]sim.CellID, cells)
	positions := make([][]float64, cells)
	for i := 0; i < cells; i++ {
		positions[i] = []float64{float64(i + 1)}
		id, err := s.AddCell(positions[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	if err := s.AssignNetwork(ids, netID); err != nil {
		return nil, err
	}

	// Only the anterior cell starts up; it seeds the patterning wave.
	low := map[string]float64{"a": 0, "s": 0, "h": 0, "u": 0}
	high := map[string]float64{"a": 1 + bristleF, "s": 1, "h": 0, "u": 0}
	if err := s.SetInitialConditions(ids[1:], low); err != nil {
		return nil, err
	}
	if err := s.SetInitialConditions(ids[:1], high); err != nil {
		return nil, err
	}

	conn := lineConn(cells)
	for _, d := range []struct {
		species string
		rate    float64
	}{
		{"h", bristleDh / bristleTh},
		{"u", bristleDu / bristleTu},
	} {
		law, err := sim.NewDiffusion(d.rate, conn, positions)
		if err != nil {
			return nil, err
		}
		if _, err := s.AddInteraction(d.species, sim.CoupleTo(d.species), law); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// lineConn connects each cell to its immediate lattice neighbors.
func lineConn(n int) [][]bool {
	conn := make([][]bool, n)
	for i := range conn {
		conn[i] = make([]bool, n)
		if i > 0 {
			conn[i][i-1] = true
		}
		if i < n-1 {
			conn[i][i+1] = true
		}
	}
	return conn
}
