package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hermangudjonson/simulation-framework/internal/modelfile"
	"github.com/hermangudjonson/simulation-framework/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <model.yaml>",
		Short: "Render a model's reaction networks",
		Long: `Output the declared reaction networks in DOT (Graphviz) or JSON format
without running the simulation. Cross-cell interactions appear in the
graph written by 'run --dot', which has the fully wired simulation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			m, err := modelfile.Load(args[0])
			if err != nil {
				return err
			}
			nets, err := m.BuildNetworks()
			if err != nil {
				return err
			}

			var rendered []byte
			switch visualization.Format(format) {
			case visualization.FormatDOT:
				rendered = []byte(visualization.RenderDOT(nets, nil))

			case visualization.FormatJSON:
				rendered, err = json.MarshalIndent(visualization.RenderJSON(nets, nil), "", "  ")
				if err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}
				rendered = append(rendered, '\n')

			default:
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), string(rendered))
				return nil
			}
			if err := os.WriteFile(output, rendered, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Graph written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}
