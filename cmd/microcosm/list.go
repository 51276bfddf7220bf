package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	loamadapter "github.com/aretw0/microcosm/pkg/adapters/loam"
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the experiments in a repository",
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := loamadapter.Open(definitionPath(args))
		if err != nil {
			fmt.Printf("Error opening repository: %v\n", err)
			os.Exit(1)
		}

		names, err := repo.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing experiments: %v\n", err)
			os.Exit(1)
		}

		if len(names) == 0 {
			fmt.Println("No experiments found.")
			return
		}

		fmt.Println("Experiments:")
		for _, name := range names {
			fmt.Println("- " + name)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
