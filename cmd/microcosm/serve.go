package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/cli"
	httpadapter "github.com/aretw0/microcosm/pkg/adapters/http"
	"github.com/aretw0/microcosm/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve an experiment over HTTP",
	Long: `Composes the experiment and exposes it as a JSON API: state, topology
and wiring reads, step/run control, live samples over SSE on /events, and
Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := cli.RunOptions{DefinitionPath: definitionPath(args)}
		opts.Experiment, _ = cmd.Flags().GetString("experiment")
		port, _ := cmd.Flags().GetString("port")

		def, err := cli.PrepareDefinition(context.Background(), opts, false)
		if err != nil {
			fmt.Printf("Error loading definition: %v\n", err)
			os.Exit(1)
		}

		metrics := observability.New()

		// The API server doubles as the experiment's emitter (SSE broadcast),
		// so it is created first and handed the experiment afterwards.
		api := httpadapter.NewServer(nil,
			httpadapter.WithMetrics(metrics.Handler()),
			httpadapter.WithVersion(strings.TrimSpace(microcosm.Version)),
		)
		exp, err := microcosm.FromDefinition(*def, nil,
			microcosm.WithEmitter(api),
			microcosm.WithLifecycleHooks(metrics.Hooks()),
		)
		if err != nil {
			fmt.Printf("Error composing experiment: %v\n", err)
			os.Exit(1)
		}
		api.Experiment = exp

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: api.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Microcosm server on %s\n", srv.Addr)
			fmt.Printf("Serving experiment: %s\n", def.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Microcosm server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().StringP("experiment", "e", "", "Experiment name when the path is a repository")
}
