package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/cli"
	"github.com/aretw0/microcosm/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Export the experiment wiring visualization",
	Long: `Composes the experiment and outputs a Mermaid flowchart of its wiring:
processes, the state paths they bind, and the port each binding uses.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{DefinitionPath: definitionPath(args)}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")

		def, err := cli.PrepareDefinition(context.Background(), opts, true)
		if err != nil {
			fmt.Printf("Error loading definition: %v\n", err)
			os.Exit(1)
		}

		exp, err := microcosm.FromDefinition(*def, nil)
		if err != nil {
			fmt.Printf("Error composing experiment: %v\n", err)
			os.Exit(1)
		}

		output := graph.GenerateMermaid(exp.Topologies(), &graph.Overlay{
			Derivers: exp.Derivers(),
			Agents:   exp.Agents(),
		})
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("experiment", "e", "", "Experiment name when the path is a repository")
}
