package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm/internal/cli"
	"github.com/aretw0/microcosm/pkg/ports"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent runs",
	Long:  `List, inspect, and remove run checkpoints in the snapshot store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all persisted runs",
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		runs, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing runs: %v\n", err)
			os.Exit(1)
		}

		if len(runs) == 0 {
			fmt.Println("No persisted runs found.")
			return
		}

		fmt.Println("Persisted runs:")
		for _, r := range runs {
			fmt.Println("- " + r)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <run-id>",
	Short: "Inspect the checkpoint of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID := args[0]
		store := getStore(cmd)

		snap, err := store.Load(cmd.Context(), runID)
		if err != nil {
			fmt.Printf("Error loading run '%s': %v\n", runID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling snapshot: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getStore(cmd)
		hasError := false

		for _, runID := range args {
			if err := store.Delete(cmd.Context(), runID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", runID, err)
				hasError = true
			} else {
				fmt.Printf("Removed run '%s'\n", runID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionCmd.PersistentFlags().String("store", "file", "Snapshot store URI (file:dir, redis:host:6379)")
}

func getStore(cmd *cobra.Command) ports.SnapshotStore {
	uri, _ := cmd.Flags().GetString("store")
	store, err := cli.OpenStore(cmd.Context(), uri)
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	return store
}
