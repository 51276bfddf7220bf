package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "microcosm",
	Short: "Microcosm is a compositional cell-simulation engine",
	Long: `Microcosm runs whole-cell models built from modular processes over a
shared hierarchical state tree. Experiments are plain YAML files or markdown
documents with frontmatter, and runs can checkpoint, resume and divide.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
