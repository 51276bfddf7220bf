package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of microcosm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("microcosm version %s\n", strings.TrimSpace(microcosm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
