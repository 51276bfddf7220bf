package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check an experiment definition for consistency",
	Long: `Loads the definition and checks every process against the catalog:
unknown kinds, malformed configs, unbound ports and topology mistakes are
reported without running anything.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{DefinitionPath: definitionPath(args)}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")

		if err := cli.Validate(opts); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Definition is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("experiment", "e", "", "Experiment name when the path is a repository")
}
