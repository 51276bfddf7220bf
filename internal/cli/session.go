package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/microcosm/internal/presentation/tui"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/runner"
	"github.com/aretw0/microcosm/pkg/session"
)

// RunOnce executes a single run of an experiment definition.
func RunOnce(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	quiet := opts.JSON
	ctx := context.Background()

	def, err := PrepareDefinition(ctx, opts, quiet)
	if err != nil {
		return err
	}

	if !quiet {
		tui.PrintBanner()
	}

	reg := buildRegistry(opts.RunID)

	// Persistence only engages with a run ID; ephemeral runs skip it.
	var sessions *session.Manager
	if opts.RunID != "" {
		store, err := reg.Store(ctx, opts.Store)
		if err != nil {
			return fmt.Errorf("snapshot store: %w", err)
		}
		sessions = session.NewManager(store, session.WithLogger(logger))
	}

	var handler runner.Handler
	if opts.JSON {
		handler = runner.NewJSONHandler(os.Stdout)
	} else {
		handler = runner.NewTextHandler(os.Stdout, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}

	r := runner.New(
		runner.WithHandler(handler),
		runner.WithLogger(logger),
		runner.WithName(def.Name),
		runner.WithDescription(def.Description),
		runner.WithSessions(sessions, opts.RunID),
		runner.WithCheckpointEvery(opts.CheckpointEvery),
	)

	exp, cleanup, err := createExperiment(ctx, opts, *def, logger, r.ResolveHandler(), reg)
	if err != nil {
		return err
	}
	defer cleanup()

	if sessions != nil {
		resumed, err := hydrateExperiment(ctx, exp, sessions, opts.RunID, logger, quiet)
		if err != nil {
			return fmt.Errorf("failed to init run: %w", err)
		}
		r.Resumed = resumed
	}
	logRunStatus(logger, opts.RunID, exp.Now(), r.Resumed, quiet)

	reportID := opts.RunID
	if reportID == "" {
		reportID = def.Name
	}
	var before *domain.Snapshot
	if opts.Report && !quiet {
		before = exp.Snapshot(reportID)
	}

	result, runErr := r.Run(ctx, exp, def.Horizon)

	if before != nil && handleExecutionError(runErr) == nil {
		printReport(runner.RunInfo{
			Name:        def.Name,
			RunID:       opts.RunID,
			Horizon:     def.Horizon,
			Start:       before.Time,
			Resumed:     r.Resumed,
			Processes:   exp.ProcessNames(),
			Description: def.Description,
		}, result, before, exp.Snapshot(reportID))
	}

	logCompletion(result, runErr, opts.RunID, quiet)
	return handleExecutionError(runErr)
}

// hydrateExperiment restores the latest checkpoint when one exists. A
// checkpoint that no longer fits the definition (the composition changed
// shape since it was taken) is discarded with a warning instead of
// failing the run.
func hydrateExperiment(ctx context.Context, exp restorable, sessions *session.Manager, runID string, logger *slog.Logger, quiet bool) (bool, error) {
	snap, loaded, err := sessions.LoadOrInit(ctx, runID, func() *domain.Snapshot {
		return exp.Snapshot(runID)
	})
	if err != nil {
		return false, err
	}
	if !loaded {
		return false, nil
	}
	if err := exp.Restore(snap); err != nil {
		logger.Warn("Checkpoint does not fit the current definition, starting fresh",
			"run_id", runID, "err", err)
		if !quiet {
			printSystemMessage("Checkpoint for '%s' no longer fits the definition; starting fresh.", runID)
		}
		if derr := sessions.Delete(ctx, runID); derr != nil {
			logger.Warn("Failed to clear stale checkpoint", "run_id", runID, "err", derr)
		}
		return false, nil
	}
	return true, nil
}

type restorable interface {
	Snapshot(id string) *domain.Snapshot
	Restore(snap *domain.Snapshot) error
}

// printReport renders the markdown run report to the terminal.
func printReport(info runner.RunInfo, result runner.Result, before, after *domain.Snapshot) {
	rep := tui.Report{
		Info:   info,
		Result: result,
		Diff:   domain.DiffSnapshots(before, after),
	}
	rendered, err := tui.NewRenderer()(rep.Markdown())
	if err != nil {
		rendered = rep.Markdown()
	}
	fmt.Print(rendered)
}
