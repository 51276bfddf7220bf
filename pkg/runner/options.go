package runner

import (
	"log/slog"

	"github.com/aretw0/microcosm/pkg/session"
)

// Option configures a Runner.
type Option func(*Runner)

// New creates a Runner configured by opts. With no options it drives runs
// ephemerally and prints text progress to stdout.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithHandler sets the presentation strategy.
func WithHandler(h Handler) Option {
	return func(r *Runner) { r.Handler = h }
}

// WithLogger sets the internal debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.Logger = logger }
}

// WithSessions enables durable checkpoints under runID.
func WithSessions(sessions *session.Manager, runID string) Option {
	return func(r *Runner) {
		r.Sessions = sessions
		r.RunID = runID
	}
}

// WithCheckpointEvery checkpoints after every n committed cycles.
func WithCheckpointEvery(n uint64) Option {
	return func(r *Runner) { r.CheckpointEvery = n }
}

// WithFilter appends a sample filter, applied in registration order.
func WithFilter(f EmitFilter) Option {
	return func(r *Runner) { r.Filters = append(r.Filters, f) }
}

// WithName labels the run for handlers.
func WithName(name string) Option {
	return func(r *Runner) { r.Name = name }
}

// WithDescription attaches markdown shown by handlers that render it.
func WithDescription(desc string) Option {
	return func(r *Runner) { r.Description = desc }
}

// WithResumed marks the run as restored from a checkpoint.
func WithResumed(resumed bool) Option {
	return func(r *Runner) { r.Resumed = resumed }
}
