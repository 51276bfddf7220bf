package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/microcosm/pkg/ports"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	// DefinitionPath names a YAML file, a markdown experiment document, or
	// a repository directory of experiments.
	DefinitionPath string

	// Experiment selects a document when DefinitionPath is a repository
	// holding more than one.
	Experiment string

	// Horizon overrides the definition's horizon when positive.
	Horizon float64

	// Seed overrides the definition's seed when SeedSet.
	Seed    int64
	SeedSet bool

	// RunID makes the run durable: checkpoints land in the snapshot store
	// under this ID, and a later run with the same ID resumes.
	RunID string

	// Fresh discards any existing checkpoint before running.
	Fresh bool

	// Watch reruns on definition changes, resuming from checkpoints.
	Watch bool

	// JSON streams machine-readable events instead of the TUI.
	JSON bool

	Debug  bool
	Strict bool

	// Report prints a markdown run report with the state changes.
	Report bool

	// Emitter is an extra sample sink URI ("file:out.jsonl",
	// "redis:localhost:6379/run-1"). It wins over the definition's.
	Emitter string

	// Store is the snapshot store URI for checkpoints, "file" by default.
	Store string

	// CheckpointEvery checkpoints after every n committed cycles.
	CheckpointEvery uint64
}

// Execute handles the run command logic, dispatching to a single run or
// watch mode.
func Execute(opts RunOptions) error {
	if opts.Store == "" {
		opts.Store = "file"
	}

	if opts.Watch {
		if opts.JSON {
			return fmt.Errorf("--watch and --json cannot be used together")
		}
		return RunWatch(opts)
	}

	if opts.Fresh && opts.RunID != "" {
		ResetRun(context.Background(), buildRegistry(opts.RunID), opts.Store, opts.RunID)
	}
	return RunOnce(opts)
}

// Validate loads a definition and lints it against the default catalog
// without running anything. Warnings print to stdout; errors aggregate into
// the returned error.
func Validate(opts RunOptions) error {
	_, err := PrepareDefinition(context.Background(), opts, false)
	return err
}

// OpenStore resolves a snapshot store URI with the standard CLI schemes.
func OpenStore(ctx context.Context, uri string) (ports.SnapshotStore, error) {
	return buildRegistry("").Store(ctx, uri)
}
