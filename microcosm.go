package microcosm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/microcosm/internal/runtime"
	"github.com/aretw0/microcosm/pkg/adapters/memory"
	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// Experiment is the high-level entry point for the microcosm library. It
// wraps the internal scheduler behind a mutex, so drivers and observers
// (the runner, the HTTP and MCP adapters) can share one experiment: the
// lock is held per cycle, and introspection interleaves at cycle
// boundaries.
type Experiment struct {
	mu     sync.Mutex
	engine *runtime.Engine

	// recorder captures samples when no external emitter is configured,
	// backing Timeseries and Series.
	recorder *memory.Emitter

	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	emitter     ports.Emitter
	runtimeOpts []runtime.EngineOption

	Name string
}

var _ ports.Experiment = (*Experiment)(nil)

// Option defines a functional option for configuring the Experiment.
type Option func(*Experiment)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(x *Experiment) {
		x.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the experiment.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Experiment) {
		x.logger = logger
	}
}

// WithEmitter sets the sink that receives one sample per committed cycle.
// Without it the experiment records samples in memory and serves them
// through Timeseries.
func WithEmitter(emitter ports.Emitter) Option {
	return func(x *Experiment) {
		x.emitter = emitter
	}
}

// WithName labels the experiment in logs and run output.
func WithName(name string) Option {
	return func(x *Experiment) {
		x.Name = name
	}
}

// WithStrict makes every process failure abort the run instead of
// forfeiting that process's update for the cycle.
func WithStrict(strict bool) Option {
	return func(x *Experiment) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithStrict(strict))
	}
}

// WithStartTime sets the initial simulated time, for resumed experiments.
func WithStartTime(t float64) Option {
	return func(x *Experiment) {
		x.runtimeOpts = append(x.runtimeOpts, runtime.WithStartTime(t))
	}
}

// New initializes an empty Experiment. Processes and agents are added
// through AddProcess and AddAgent; FromDefinition does both from a
// declarative file.
func New(opts ...Option) *Experiment {
	x := &Experiment{}
	for _, opt := range opts {
		opt(x)
	}

	if x.logger == nil {
		x.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if x.Name != "" {
		x.logger = x.logger.With("experiment", x.Name)
	}
	if x.emitter == nil {
		x.recorder = memory.NewEmitter()
		x.emitter = x.recorder
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(x.hooks),
		runtime.WithLogger(x.logger),
		runtime.WithEmitter(x.emitter),
	}
	engineOpts = append(engineOpts, x.runtimeOpts...)
	x.engine = runtime.NewEngine(engineOpts...)
	return x
}

// FromDefinition constructs an experiment from a declarative definition:
// every process spec is built through the catalog and registered under its
// name. A nil catalog means the built-in kinds (DefaultCatalog).
//
// The definition's emitter URI is not resolved here; drivers resolve it
// against a scheme registry and pass the result through WithEmitter.
func FromDefinition(def composition.Definition, catalog *composition.Catalog, opts ...Option) (*Experiment, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	x := New(append([]Option{WithName(def.Name)}, opts...)...)
	for i, spec := range def.Processes {
		spec = seeded(spec, catalog, def.Seed, int64(i))
		proc, topo, err := catalog.Construct(spec)
		if err != nil {
			return nil, fmt.Errorf("definition %q: process %q: %w", def.Name, spec.Name, err)
		}
		if err := x.engine.AddProcess(spec.Name, proc, topo); err != nil {
			return nil, fmt.Errorf("definition %q: process %q: %w", def.Name, spec.Name, err)
		}
	}
	return x, nil
}

// seeded injects a per-process random seed derived from the definition
// seed, when the kind declares a seed field and the spec leaves it unset.
// Offsetting by the process index keeps sibling stochastic processes on
// independent streams.
func seeded(spec composition.ProcessSpec, catalog *composition.Catalog, seed, index int64) composition.ProcessSpec {
	declared := catalog.ConfigSchema(spec.Kind)
	if declared == nil {
		return spec
	}
	if _, ok := declared["seed"]; !ok {
		return spec
	}
	if _, set := spec.Config["seed"]; set {
		return spec
	}
	config := make(map[string]any, len(spec.Config)+1)
	for k, v := range spec.Config {
		config[k] = v
	}
	config["seed"] = seed + index
	spec.Config = config
	return spec
}

// AddProcess registers a process under a unique name and declares its
// schema onto the tree through the given topology.
func (x *Experiment) AddProcess(name string, proc ports.Process, topo domain.Topology) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.AddProcess(name, proc, topo)
}

// AddAgent registers a dividable subtree: the composite populates it now
// and repopulates the daughters after each division.
func (x *Experiment) AddAgent(base domain.Path, composite ports.Composite) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.AddAgent(base, composite)
}

// Now returns the current simulated time.
func (x *Experiment) Now() float64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Now()
}

// Cycles returns the number of committed scheduler cycles.
func (x *Experiment) Cycles() uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Cycles()
}

// ProcessNames returns the names of all registered processes, sorted.
func (x *Experiment) ProcessNames() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.ProcessNames()
}

// Derivers returns the names of the registered derivers, sorted.
func (x *Experiment) Derivers() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Derivers()
}

// Agents returns the base paths of live agent subtrees, sorted.
func (x *Experiment) Agents() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Agents()
}

// Topologies returns every process's port wiring as path strings.
func (x *Experiment) Topologies() map[string]map[string]string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Topologies()
}

// Snapshot captures the full state under the given id.
func (x *Experiment) Snapshot(id string) *domain.Snapshot {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Snapshot(id)
}

// Restore replaces the experiment's state with a snapshot taken from an
// identically composed experiment.
func (x *Experiment) Restore(snap *domain.Snapshot) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Restore(snap)
}

// Step advances the experiment by one scheduler cycle.
func (x *Experiment) Step(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.engine.Step(ctx)
}

// Run advances cycles until the clock reaches horizon, releasing the lock
// between cycles. It stops early when the context is cancelled or no
// timed processes remain.
func (x *Experiment) Run(ctx context.Context, horizon float64) error {
	x.mu.Lock()
	if x.timedLocked() == 0 {
		x.mu.Unlock()
		return fmt.Errorf("no timed processes registered")
	}
	x.mu.Unlock()

	for {
		x.mu.Lock()
		if x.engine.Now()+domain.TimeEpsilon >= horizon {
			x.mu.Unlock()
			return nil
		}
		if err := ctx.Err(); err != nil {
			x.mu.Unlock()
			return err
		}
		if err := x.engine.Step(ctx); err != nil {
			x.mu.Unlock()
			return err
		}
		remaining := x.timedLocked()
		now := x.engine.Now()
		x.mu.Unlock()
		if remaining == 0 {
			x.logger.Info("run ended early: no timed processes remain", "time", now)
			return nil
		}
	}
}

// Timeseries returns the samples recorded so far, one per committed
// cycle. It returns nil when an external emitter was configured.
func (x *Experiment) Timeseries() []domain.Sample {
	if x.recorder == nil {
		return nil
	}
	return x.recorder.Samples()
}

// Series returns the recorded samples pivoted into one column per
// variable path, plus a "time" column. It returns nil when an external
// emitter was configured.
func (x *Experiment) Series() map[string][]any {
	if x.recorder == nil {
		return nil
	}
	return x.recorder.Series()
}

func (x *Experiment) timedLocked() int {
	return len(x.engine.ProcessNames()) - len(x.engine.Derivers())
}
