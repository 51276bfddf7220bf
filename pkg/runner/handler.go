package runner

import (
	"context"
	"time"

	"github.com/aretw0/microcosm/pkg/ports"
)

// RunInfo describes a run before its first cycle.
type RunInfo struct {
	// Name identifies the experiment, typically its definition name.
	Name string `json:"name,omitempty"`

	// RunID is the durable identifier, empty for ephemeral runs.
	RunID string `json:"run_id,omitempty"`

	// Horizon is the simulated time the run drives toward.
	Horizon float64 `json:"horizon"`

	// Start is the simulated time of the first cycle. Nonzero when the
	// run resumes from a checkpoint.
	Start float64 `json:"start"`

	// Resumed reports whether state was restored from a checkpoint.
	Resumed bool `json:"resumed,omitempty"`

	// Processes lists the registered process names.
	Processes []string `json:"processes,omitempty"`

	// Description is optional markdown shown by handlers that render it.
	Description string `json:"description,omitempty"`
}

// Result summarizes a finished run. It is valid even when the run was
// interrupted or failed partway.
type Result struct {
	// Time is the simulated time reached.
	Time float64 `json:"time"`

	// Cycles is the total committed cycle count, including cycles from
	// before a resume.
	Cycles uint64 `json:"cycles"`

	// Elapsed is the wall-clock duration of the drive loop.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Interrupted is true when a signal or context cancellation stopped
	// the run before the horizon.
	Interrupted bool `json:"interrupted,omitempty"`
}

// Handler defines the strategy for presenting a run.
// It doubles as the experiment's emitter: every committed sample flows
// through Emit, bracketed by Begin and End. This allows switching between
// Text (interactive CLI) and JSON (structured pipelines) without touching
// the drive loop.
type Handler interface {
	ports.Emitter

	// Begin announces the run before the first cycle.
	Begin(ctx context.Context, info RunInfo) error

	// End reports the outcome after the last cycle, whether the run hit
	// the horizon, failed, or was interrupted.
	End(ctx context.Context, result Result) error
}

// ContentRenderer is a function that transforms markdown before a handler
// prints it. This allows for TUI rendering (markdown to ANSI) without
// coupling this package to a specific renderer.
type ContentRenderer func(string) (string, error)
