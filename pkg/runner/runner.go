package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/microcosm/internal/logging"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/session"
)

// ErrInterrupted reports a run stopped by a signal or context cancellation
// before reaching its horizon. The last committed cycle is checkpointed
// when a session manager is configured.
var ErrInterrupted = errors.New("run interrupted")

// Runner drives an experiment toward a horizon using a Handler strategy.
// It owns the concerns around the cycle loop that the scheduler stays free
// of: presentation, periodic checkpoints, and signal handling.
type Runner struct {
	// Handler is the presentation strategy. If nil, a TextHandler on
	// stdout is used.
	Handler Handler

	// Filters narrow or drop samples before they reach the handler.
	Filters []EmitFilter

	// Logger is used for internal debug logging. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	// Sessions persists checkpoints under RunID. If nil, runs are
	// ephemeral.
	Sessions *session.Manager

	// RunID is the durable identifier for checkpoints.
	RunID string

	// CheckpointEvery checkpoints after every n committed cycles, on top
	// of the final checkpoint every run gets. Zero disables the periodic
	// ones.
	CheckpointEvery uint64

	// Name, Description and Resumed label the run for the handler's
	// Begin.
	Name        string
	Description string
	Resumed     bool

	resolved Handler
}

// ResolveHandler returns the handler the next Run will drive, applying
// the default and the filters. Call it before constructing the experiment
// so the same handler can be wired as the experiment's emitter; the
// result is memoized and Run uses the same instance.
func (r *Runner) ResolveHandler() Handler {
	if r.resolved != nil {
		return r.resolved
	}
	h := r.Handler
	if h == nil {
		h = NewTextHandler(os.Stdout)
	}
	if len(r.Filters) > 0 {
		h = Filtered(h, r.Filters...)
	}
	r.resolved = h
	return h
}

// Run advances the experiment cycle by cycle until its clock reaches the
// horizon. Committed samples reach the handler through the experiment's
// emitter wiring; Run brackets them with Begin and End, checkpoints every
// CheckpointEvery cycles, and stops cleanly on SIGINT, SIGTERM, or
// cancellation of ctx. The returned Result is valid even when err is
// ErrInterrupted.
func (r *Runner) Run(ctx context.Context, exp ports.Experiment, horizon float64) (Result, error) {
	handler := r.ResolveHandler()
	logger := r.logger()

	if r.Sessions != nil {
		clean, err := SanitizeID(r.RunID)
		if err != nil {
			return Result{}, fmt.Errorf("run id: %w", err)
		}
		r.RunID = clean
	}
	if timedProcesses(exp) == 0 {
		return Result{}, fmt.Errorf("no timed processes registered")
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()
	runCtx := signals.Context()

	info := RunInfo{
		Name:        r.Name,
		RunID:       r.RunID,
		Horizon:     horizon,
		Start:       exp.Now(),
		Resumed:     r.Resumed,
		Processes:   exp.ProcessNames(),
		Description: r.Description,
	}
	if err := handler.Begin(runCtx, info); err != nil {
		return Result{}, fmt.Errorf("handler begin: %w", err)
	}

	started := time.Now()
	var runErr error
	for exp.Now()+domain.TimeEpsilon < horizon {
		if runCtx.Err() != nil {
			runErr = fmt.Errorf("%w at t=%g", ErrInterrupted, exp.Now())
			break
		}
		if err := exp.Step(runCtx); err != nil {
			if runCtx.Err() != nil {
				runErr = fmt.Errorf("%w at t=%g", ErrInterrupted, exp.Now())
			} else {
				runErr = err
			}
			break
		}
		if r.CheckpointEvery > 0 && exp.Cycles()%r.CheckpointEvery == 0 {
			if err := r.checkpoint(exp); err != nil {
				runErr = fmt.Errorf("checkpoint: %w", err)
				break
			}
			logger.Debug("checkpoint saved",
				"run_id", r.RunID, "time", exp.Now(), "cycles", exp.Cycles())
		}
		if timedProcesses(exp) == 0 {
			logger.Info("run ended early: no timed processes remain", "time", exp.Now())
			break
		}
	}

	// Final checkpoint regardless of how the loop ended, so an interrupt
	// resumes from the last committed cycle.
	if err := r.checkpoint(exp); err != nil && runErr == nil {
		runErr = fmt.Errorf("final checkpoint: %w", err)
	}

	result := Result{
		Time:        exp.Now(),
		Cycles:      exp.Cycles(),
		Elapsed:     time.Since(started),
		Interrupted: errors.Is(runErr, ErrInterrupted),
	}

	// End and Close report best effort once the run itself failed. The
	// signal context may already be cancelled here.
	if err := handler.End(context.Background(), result); err != nil && runErr == nil {
		runErr = fmt.Errorf("handler end: %w", err)
	}
	if err := handler.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return result, runErr
}

// checkpoint saves the current state under RunID. It runs on its own
// deadline because the run context may already be cancelled when the
// final checkpoint happens.
func (r *Runner) checkpoint(exp ports.Experiment) error {
	if r.Sessions == nil || r.RunID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.Sessions.Checkpoint(ctx, r.RunID, exp.Snapshot(r.RunID))
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.NewNop()
}

// timedProcesses counts the processes that advance the clock. When none
// remain the drive loop must stop, mirroring the scheduler's own early
// exit.
func timedProcesses(exp ports.Experiment) int {
	derivers := make(map[string]bool)
	for _, name := range exp.Derivers() {
		derivers[name] = true
	}
	n := 0
	for _, name := range exp.ProcessNames() {
		if !derivers[name] {
			n++
		}
	}
	return n
}
