package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run an experiment",
	Long: `Loads the experiment definition at path (a YAML file, a markdown
document, or a repository directory) and advances it to its horizon.

With --run the run is durable: cycles checkpoint into the snapshot store and
a later invocation with the same ID resumes where it stopped. With --watch
the definition is rerun on every change, resuming from the last checkpoint.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{DefinitionPath: definitionPath(args)}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")
		opts.Horizon, _ = cmd.Flags().GetFloat64("horizon")
		opts.Seed, _ = cmd.Flags().GetInt64("seed")
		opts.SeedSet = cmd.Flags().Changed("seed")
		opts.RunID, _ = cmd.Flags().GetString("run")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Strict, _ = cmd.Flags().GetBool("strict")
		opts.Report, _ = cmd.Flags().GetBool("report")
		opts.Emitter, _ = cmd.Flags().GetString("emitter")
		opts.Store, _ = cmd.Flags().GetString("store")
		opts.CheckpointEvery, _ = cmd.Flags().GetUint64("checkpoint-every")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func definitionPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("experiment", "e", "", "Experiment name when the path is a repository")
	runCmd.Flags().Float64("horizon", 0, "Override the definition's horizon")
	runCmd.Flags().Int64("seed", 0, "Override the definition's random seed")
	runCmd.Flags().String("run", "", "Run ID for durable, resumable runs")
	runCmd.Flags().Bool("fresh", false, "Discard any existing checkpoint before running")
	runCmd.Flags().BoolP("watch", "w", false, "Rerun on definition changes with hot-reload")
	runCmd.Flags().Bool("json", false, "Stream NDJSON events instead of the TUI")
	runCmd.Flags().Bool("debug", false, "Log every cycle and process execution")
	runCmd.Flags().Bool("strict", false, "Treat schema violations as fatal")
	runCmd.Flags().Bool("report", false, "Print a run report with the state changes")
	runCmd.Flags().String("emitter", "", "Extra sample sink URI (file:out.jsonl, redis:host:6379/run)")
	runCmd.Flags().String("store", "file", "Snapshot store URI for checkpoints (file:dir, redis:host:6379)")
	runCmd.Flags().Uint64("checkpoint-every", 0, "Checkpoint after every n cycles (0 = end of run only)")

	// Running is what the binary is for, so it doubles as the root action.
	rootCmd.Run = runCmd.Run
	rootCmd.Args = runCmd.Args
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
