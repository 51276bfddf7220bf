package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/logging"
	"github.com/aretw0/microcosm/internal/validator"
	"github.com/aretw0/microcosm/pkg/adapters/console"
	"github.com/aretw0/microcosm/pkg/adapters/file"
	loamadapter "github.com/aretw0/microcosm/pkg/adapters/loam"
	redisadapter "github.com/aretw0/microcosm/pkg/adapters/redis"
	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/registry"
	"github.com/aretw0/microcosm/pkg/runner"
)

// createLogger configures the application logger.
// In debug mode it writes to stderr, separated from the sample stream on
// stdout.
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// PrepareDefinition loads the definition, applies flag overrides, and runs
// the static checks. Warnings print unless quiet; errors fail before
// anything is constructed.
func PrepareDefinition(ctx context.Context, opts RunOptions, quiet bool) (*composition.Definition, error) {
	def, err := loadDefinition(ctx, opts)
	if err != nil {
		return nil, err
	}
	applyOverrides(def, opts)
	if err := lintDefinition(def, quiet); err != nil {
		return nil, err
	}
	return def, nil
}

// loadDefinition resolves the definition path: a directory is a loam
// repository of experiment documents, a .yaml/.yml file is a single
// definition, and a .md file is one document loaded through its parent
// repository.
func loadDefinition(ctx context.Context, opts RunOptions) (*composition.Definition, error) {
	info, err := os.Stat(opts.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("definition path: %w", err)
	}

	if info.IsDir() {
		repo, err := loamadapter.Open(opts.DefinitionPath)
		if err != nil {
			return nil, err
		}
		return loadFromRepository(ctx, repo, opts.Experiment)
	}

	switch strings.ToLower(filepath.Ext(opts.DefinitionPath)) {
	case ".yaml", ".yml":
		return file.LoadDefinition(opts.DefinitionPath)
	case ".md":
		repo, err := loamadapter.Open(filepath.Dir(opts.DefinitionPath))
		if err != nil {
			return nil, err
		}
		base := filepath.Base(opts.DefinitionPath)
		return repo.Load(ctx, strings.TrimSuffix(base, filepath.Ext(base)))
	default:
		return nil, fmt.Errorf("unsupported definition format %q (want .yaml, .yml or .md)", filepath.Ext(opts.DefinitionPath))
	}
}

// loadFromRepository picks a document from a repository. With no explicit
// name, a repository holding exactly one experiment selects it.
func loadFromRepository(ctx context.Context, repo *loamadapter.Loader, experiment string) (*composition.Definition, error) {
	if experiment != "" {
		return repo.Load(ctx, experiment)
	}
	ids, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("repository holds no experiments")
	case 1:
		return repo.Load(ctx, ids[0])
	default:
		return nil, fmt.Errorf("repository holds %d experiments (%s); pick one with --experiment",
			len(ids), strings.Join(ids, ", "))
	}
}

func applyOverrides(def *composition.Definition, opts RunOptions) {
	if opts.Horizon > 0 {
		def.Horizon = opts.Horizon
	}
	if opts.SeedSet {
		def.Seed = opts.Seed
	}
}

// lintDefinition runs the static checks against the built-in catalog.
func lintDefinition(def *composition.Definition, quiet bool) error {
	result := validator.ValidateDefinition(*def, microcosm.DefaultCatalog())
	if err := result.Err(); err != nil {
		return err
	}
	if !quiet {
		for _, issue := range result.Issues {
			if issue.Severity == validator.SeverityWarning {
				printSystemMessage("%s", issue)
			}
		}
	}
	return nil
}

// buildRegistry wires the sink and store schemes the CLI knows about.
// URIs follow "scheme:target": "file:out.jsonl" appends samples to a
// file, "redis:localhost:6379/run-1" streams them to a Redis list, and
// "file" alone stores snapshots under the default directory.
func buildRegistry(runID string) *registry.Registry {
	reg := registry.NewRegistry()

	reg.RegisterEmitter("console", func(_ context.Context, target string) (ports.Emitter, error) {
		if target == "stderr" {
			return console.NewEmitter(os.Stderr), nil
		}
		return console.NewStdout(), nil
	})
	reg.RegisterEmitter("file", func(_ context.Context, target string) (ports.Emitter, error) {
		if target == "" {
			return nil, fmt.Errorf("file emitter needs a path, like file:samples.jsonl")
		}
		return file.NewEmitter(target)
	})
	reg.RegisterEmitter("redis", func(_ context.Context, target string) (ports.Emitter, error) {
		addr, run := splitRedisTarget(target, runID)
		client := backend.NewClient(&backend.Options{Addr: addr})
		return redisadapter.NewEmitter(client, run), nil
	})

	reg.RegisterStore("file", func(_ context.Context, target string) (ports.SnapshotStore, error) {
		return file.New(target), nil
	})
	reg.RegisterStore("redis", func(_ context.Context, target string) (ports.SnapshotStore, error) {
		addr, _ := splitRedisTarget(target, runID)
		return redisadapter.New(addr, "", 0), nil
	})

	return reg
}

// splitRedisTarget separates "addr/run" into its parts, defaulting the
// address to localhost and the run key to the run ID.
func splitRedisTarget(target, runID string) (addr, run string) {
	addr, run, ok := strings.Cut(target, "/")
	if !ok {
		run = runID
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	if run == "" {
		run = "run"
	}
	return addr, run
}

// createDebugHooks logs every lifecycle event at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCycle: func(_ context.Context, e *domain.CycleEvent) {
			logger.Debug("Cycle committed", "time", e.Time, "processes", e.Processes, "duration", e.Duration)
		},
		OnProcess: func(_ context.Context, e *domain.ProcessEvent) {
			if e.Err != nil {
				logger.Debug("Process failed", "process", e.Process, "time", e.Time, "err", e.Err)
				return
			}
			logger.Debug("Process ran", "process", e.Process, "time", e.Time, "duration", e.Duration)
		},
		OnDivide: func(_ context.Context, e *domain.StructureEvent) {
			logger.Debug("Agent divided", "process", e.Process, "path", e.Path.String(),
				"daughters", e.Daughters[0]+","+e.Daughters[1])
		},
		OnRemove: func(_ context.Context, e *domain.StructureEvent) {
			logger.Debug("Subtree removed", "process", e.Process, "path", e.Path.String())
		},
		OnEmit: func(_ context.Context, e *domain.EmitEvent) {
			logger.Debug("Sample emitted", "time", e.Time, "values", e.Values)
		},
	}
}

// logRunStatus reports whether this run is fresh or resumed.
func logRunStatus(logger *slog.Logger, runID string, now float64, resumed, quiet bool) {
	if resumed {
		logger.Info("Run resumed", "run_id", runID, "time", now)
		if !quiet {
			printSystemMessage("Resuming run '%s' at t=%g...", runID, now)
		}
	} else if runID != "" {
		logger.Info("Run created", "run_id", runID)
		if !quiet {
			printSystemMessage("Run '%s' active.", runID)
		}
	}
}

// logCompletion prints the end-of-run system message.
func logCompletion(result runner.Result, err error, runID string, quiet bool) {
	if quiet {
		return
	}
	if err == nil {
		printSystemMessage("Finished at t=%g after %d cycles.", result.Time, result.Cycles)
		return
	}
	if errors.Is(err, runner.ErrInterrupted) {
		fmt.Printf("\n")
		if runID != "" {
			printSystemMessage("Interrupted at t=%g. Resume with --run '%s'.", result.Time, runID)
		} else {
			printSystemMessage("Interrupted at t=%g.", result.Time)
		}
	}
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, runner.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ResetRun clears the checkpoint for the given run ID.
func ResetRun(ctx context.Context, reg *registry.Registry, storeURI, runID string) {
	if runID == "" {
		return
	}
	store, err := reg.Store(ctx, storeURI)
	if err != nil {
		return
	}
	_ = store.Delete(ctx, runID)
}
