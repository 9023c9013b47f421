package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/hermangudjonson/simulation-framework/internal/logging"
	"github.com/hermangudjonson/simulation-framework/internal/modelfile"
	"github.com/hermangudjonson/simulation-framework/internal/sim"
	"github.com/hermangudjonson/simulation-framework/internal/trajectory"
	"github.com/hermangudjonson/simulation-framework/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <model.yaml>",
		Short: "Integrate a model and write its trajectories",
		Long: `Load a model file, integrate the assembled system over its declared time
grid, and write per-cell trajectories to trajectories.csv in the output
directory. Charts, lattice videos, and the reaction graph are written on
request.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			chartSpecies, _ := cmd.Flags().GetStringSlice("chart")
			videoSpecies, _ := cmd.Flags().GetString("video")
			fps, _ := cmd.Flags().GetInt("fps")
			writeDOT, _ := cmd.Flags().GetBool("dot")
			level, _ := cmd.Flags().GetString("log-level")

			logger := logging.NewLogger(level, cmd.ErrOrStderr())

			m, err := modelfile.Load(args[0])
			if err != nil {
				return err
			}
			s, times, err := m.Build()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			runs := logging.NewRunLogger(outDir, level)
			defer runs.Close()
			s.SetLogger(logger, runs)

			start := time.Now()
			trs, err := s.Simulate(cmd.Context(), times)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}
			logger.Info("run complete",
				"model", args[0],
				"cells", len(trs),
				"points", len(times),
				"elapsed", time.Since(start))

			csvPath := filepath.Join(outDir, "trajectories.csv")
			if err := writeTrajectoryCSV(csvPath, trs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trajectories written to %s\n", csvPath)

			for _, sp := range chartSpecies {
				png, err := visualization.SpeciesChart(trs, sp)
				if err != nil {
					return fmt.Errorf("chart %s: %w", sp, err)
				}
				p := filepath.Join(outDir, fmt.Sprintf("chart_%s.png", sp))
				if err := os.WriteFile(p, png, 0644); err != nil {
					return fmt.Errorf("write %s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", p)
			}

			if videoSpecies != "" {
				p := filepath.Join(outDir, fmt.Sprintf("%s.avi", videoSpecies))
				if err := writeSpeciesVideo(p, s, trs, videoSpecies, fps); err != nil {
					return fmt.Errorf("video %s: %w", videoSpecies, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Video written to %s\n", p)
			}

			if writeDOT {
				p := filepath.Join(outDir, "network.dot")
				dot := visualization.RenderDOT(s.Networks(), s.Interactions())
				if err := os.WriteFile(p, []byte(dot), 0644); err != nil {
					return fmt.Errorf("write %s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Graph written to %s\n", p)
			}

			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "out", "Output directory")
	cmd.Flags().StringSlice("chart", nil, "Render a per-cell PNG chart of each named species")
	cmd.Flags().String("video", "", "Render an MJPEG lattice video of the named species")
	cmd.Flags().Int("fps", 10, "Video frames per second")
	cmd.Flags().Bool("dot", false, "Also write the wired reaction graph in DOT format")

	return cmd
}

func writeTrajectoryCSV(path string, trs []*trajectory.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := trajectory.WriteCSV(f, trs); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writeSpeciesVideo renders one lattice frame per output time point for the
// cells that carry the species. Positions come via the simulation's coupling
// order, so the frames stay aligned with the trajectories regardless of how
// many networks the model declares.
func writeSpeciesVideo(path string, s *sim.Simulation, trs []*trajectory.Trajectory, species string, fps int) error {
	order := s.GroupOrder()
	positions := s.Positions()

	var (
		keptPos [][]float64
		series  [][]float64
		times   []float64
	)
	for i, id := range order {
		tr := trs[int(id)]
		vals, err := tr.Species(species)
		if errors.Is(err, trajectory.ErrUnknownSpecies) {
			continue
		}
		if err != nil {
			return err
		}
		keptPos = append(keptPos, positions[i])
		series = append(series, vals)
		times = tr.Times
	}
	if len(series) == 0 {
		return fmt.Errorf("species %q not in any cell", species)
	}

	values := make([]float64, len(series))
	frames := make([]*image.RGBA, 0, len(times))
	for k := range times {
		for i := range series {
			values[i] = series[i][k]
		}
		label := fmt.Sprintf("%s  t=%.4g", species, times[k])
		frame, err := visualization.LatticeFrame(keptPos, values, label)
		if err != nil {
			return fmt.Errorf("frame %d: %w", k, err)
		}
		frames = append(frames, frame)
	}
	return visualization.WriteVideo(path, frames, fps)
}
