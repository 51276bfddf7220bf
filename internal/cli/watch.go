package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/microcosm/internal/presentation/tui"
	loamadapter "github.com/aretw0/microcosm/pkg/adapters/loam"
	"github.com/aretw0/microcosm/pkg/registry"
	"github.com/aretw0/microcosm/pkg/runner"
	"github.com/aretw0/microcosm/pkg/session"
)

// RunWatch executes experiments in development mode, rerunning on
// definition changes. Each iteration resumes from the latest checkpoint,
// so edits refine a living run instead of restarting it.
func RunWatch(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	tui.PrintBanner()

	info, err := os.Stat(opts.DefinitionPath)
	if err != nil {
		return fmt.Errorf("definition path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch mode needs a definition repository (a directory), got a file")
	}

	// Default run for watch mode, scoped by path hash so two projects'
	// checkpoints never collide.
	if opts.RunID == "" {
		hash := md5.Sum([]byte(opts.DefinitionPath))
		opts.RunID = fmt.Sprintf("watch-%x", hash[:4])
	}

	reg := buildRegistry(opts.RunID)
	if opts.Fresh {
		ResetRun(context.Background(), reg, opts.Store, opts.RunID)
	}

	logger.Info("Starting watcher", "path", opts.DefinitionPath, "run_id", opts.RunID)
	printSystemMessage("Watching '%s' under run '%s'.", opts.DefinitionPath, opts.RunID)

	signals := runner.NewSignalManager(context.Background())
	defer signals.Stop()
	parent := signals.Context()

	repo, err := loamadapter.Open(opts.DefinitionPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	for runWatchIteration(parent, opts, repo, reg, logger) {
		logger.Info("Watcher restarting")
	}
	return nil
}

// runWatchIteration runs one load-run-wait cycle. It returns true when
// the watcher should reload and go again.
func runWatchIteration(parent context.Context, opts RunOptions, repo *loamadapter.Loader, reg *registry.Registry, logger *slog.Logger) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	watchCh, err := repo.Watch(ctx)
	if err != nil {
		logger.Error("Watcher unavailable", "err", err)
		return false
	}

	// A change event cancels the iteration context, which stops a running
	// experiment between cycles. The buffered channel remembers the
	// reload across that cancellation.
	reload := make(chan struct{}, 1)
	go func() {
		select {
		case <-ctx.Done():
		case id, ok := <-watchCh:
			if !ok {
				return
			}
			fmt.Printf("\n")
			printSystemMessage("Change detected in '%s'.", id)
			// Give the file system a moment to settle.
			time.Sleep(100 * time.Millisecond)
			reload <- struct{}{}
			cancel()
		}
	}()

	def, err := loadFromRepository(ctx, repo, opts.Experiment)
	if err == nil {
		applyOverrides(def, opts)
		err = lintDefinition(def, false)
	}
	if err != nil {
		logger.Error("Definition broken, waiting for a fix", "err", err)
		printSystemMessage("Definition error: %v", err)
		return waitForChange(parent, reload)
	}

	handler := runner.NewTextHandler(os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer()))

	store, err := reg.Store(ctx, opts.Store)
	if err != nil {
		logger.Error("Snapshot store unavailable", "err", err)
		return false
	}
	sessions := session.NewManager(store, session.WithLogger(logger))

	// Reloads resume mid-run, so checkpoint every cycle unless tuned.
	every := opts.CheckpointEvery
	if every == 0 {
		every = 1
	}

	r := runner.New(
		runner.WithHandler(handler),
		runner.WithLogger(logger),
		runner.WithName(def.Name),
		runner.WithDescription(def.Description),
		runner.WithSessions(sessions, opts.RunID),
		runner.WithCheckpointEvery(every),
	)

	exp, cleanup, err := createExperiment(ctx, opts, *def, logger, r.ResolveHandler(), reg)
	if err != nil {
		logger.Error("Experiment construction failed", "err", err)
		printSystemMessage("Definition error: %v", err)
		return waitForChange(parent, reload)
	}
	defer cleanup()

	resumed, err := hydrateExperiment(ctx, exp, sessions, opts.RunID, logger, false)
	if err != nil {
		logger.Error("Rehydration failed", "err", err)
		return waitForChange(parent, reload)
	}
	r.Resumed = resumed
	logRunStatus(logger, opts.RunID, exp.Now(), resumed, false)

	result, runErr := r.Run(ctx, exp, def.Horizon)

	// A pending reload outranks whatever the run returned.
	select {
	case <-reload:
		return true
	default:
	}

	if parent.Err() != nil {
		logCompletion(result, runErr, opts.RunID, false)
		logger.Info("Stopping watcher (signal received)")
		return false
	}
	if runErr != nil && !errors.Is(runErr, runner.ErrInterrupted) {
		logger.Error("Run failed", "err", runErr)
		printSystemMessage("Run failed: %v", runErr)
	} else if runErr == nil {
		logCompletion(result, nil, opts.RunID, false)
	}

	printSystemMessage("Waiting for changes...")
	return waitForChange(parent, reload)
}

// waitForChange parks until the next reload or a shutdown signal.
func waitForChange(parent context.Context, reload <-chan struct{}) bool {
	select {
	case <-parent.Done():
		return false
	case <-reload:
		return true
	}
}
