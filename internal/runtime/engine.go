package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// timeEps aliases the shared tolerance so scheduling comparisons stay
// consistent with external drivers of the cycle loop.
const timeEps = domain.TimeEpsilon

// boundProcess is one registered process with its wiring and its clock.
type boundProcess struct {
	name     string
	proc     ports.Process
	schema   domain.Schema
	topo     domain.Topology
	timestep float64
	nextRun  float64

	// agent is the base path string of the owning agent, empty for
	// experiment-level processes.
	agent string
}

func (b *boundProcess) deriver() bool {
	return b.timestep == 0
}

// agentEntry is a dividable subtree together with the composite that can
// repopulate it with fresh processes after a division.
type agentEntry struct {
	base      domain.Path
	composite ports.Composite
}

// Engine is the core scheduler: it owns the state tree and the set of live
// processes, and advances them cycle by cycle. It is not safe for
// concurrent use; callers serialize access (the facade and the adapters
// each hold one engine behind their own synchronization).
type Engine struct {
	tree   *domain.Tree
	procs  map[string]*boundProcess
	agents map[string]*agentEntry
	now    float64
	cycles uint64

	logger  *slog.Logger
	hooks   domain.LifecycleHooks
	emitter ports.Emitter
	strict  bool
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEmitter sets the sink that receives one sample per committed cycle.
func WithEmitter(emitter ports.Emitter) EngineOption {
	return func(e *Engine) {
		e.emitter = emitter
	}
}

// WithStrict makes every process failure fatal for the run. Without it,
// a failing process forfeits its update for that cycle and the run
// continues.
func WithStrict(strict bool) EngineOption {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithStartTime sets the initial simulated time, for resumed experiments.
func WithStartTime(t float64) EngineOption {
	return func(e *Engine) {
		e.now = t
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		tree:   domain.NewTree(),
		procs:  make(map[string]*boundProcess),
		agents: make(map[string]*agentEntry),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddProcess registers an experiment-level process under a unique name and
// declares its schema onto the tree through the given topology. Every port
// the schema names must be bound.
func (e *Engine) AddProcess(name string, proc ports.Process, topo domain.Topology) error {
	return e.addProcess(e.tree, e.procs, name, proc, topo, "", false)
}

// addProcess registers into an explicit tree and registry, so the mutate
// phase can build daughters against staged state.
func (e *Engine) addProcess(tree *domain.Tree, procs map[string]*boundProcess, name string, proc ports.Process, topo domain.Topology, agent string, redeclare bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty process name", domain.ErrInvalidPath)
	}
	if _, exists := procs[name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateProcess, name)
	}
	timestep := proc.TimeStep()
	if timestep < 0 {
		return fmt.Errorf("process %q: negative time step %v", name, timestep)
	}
	schema := proc.Schema()
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("process %q: %w", name, err)
	}
	for _, port := range schema.Ports() {
		base, err := topo.Resolve(port)
		if err != nil {
			return fmt.Errorf("process %q: %w", name, err)
		}
		for varName, decl := range schema[port] {
			path := base.Child(varName)
			var declErr error
			if redeclare {
				declErr = tree.Redeclare(path, decl)
			} else {
				declErr = tree.Declare(path, decl)
			}
			if declErr != nil {
				return fmt.Errorf("process %q: %w", name, declErr)
			}
		}
	}
	procs[name] = &boundProcess{
		name:     name,
		proc:     proc,
		schema:   schema,
		topo:     topo.Clone(),
		timestep: timestep,
		nextRun:  e.now,
		agent:    agent,
	}
	return nil
}

// AddAgent registers a dividable subtree at base and populates it with the
// composite's processes. Process names are qualified with the base path, so
// several agents can run the same composite side by side. The composite is
// retained: after a division it regenerates fresh processes for each
// daughter.
func (e *Engine) AddAgent(base domain.Path, composite ports.Composite) error {
	if base.IsRoot() {
		return fmt.Errorf("%w: agent base cannot be the root", domain.ErrInvalidPath)
	}
	for _, seg := range base {
		if err := domain.ValidateSegment(seg); err != nil {
			return fmt.Errorf("agent base %s: %w", base, err)
		}
	}
	key := base.String()
	for existing := range e.agents {
		ep := domain.MustPath(existing)
		if base.HasPrefix(ep) || ep.HasPrefix(base) {
			return fmt.Errorf("%w: agent %s overlaps agent %s", domain.ErrStructuralConflict, base, existing)
		}
	}
	if err := e.populateAgent(e.tree, e.procs, base, composite, false); err != nil {
		return err
	}
	e.agents[key] = &agentEntry{base: base.Clone(), composite: composite}
	return nil
}

// populateAgent generates and registers the composite's processes for one
// agent base. With redeclare set, existing tree values win over schema
// defaults, which is how daughters keep their divided state.
func (e *Engine) populateAgent(tree *domain.Tree, procs map[string]*boundProcess, base domain.Path, composite ports.Composite, redeclare bool) error {
	generated, topos, err := composite.Generate(base)
	if err != nil {
		return fmt.Errorf("agent %s: %w", base, err)
	}
	names := make([]string, 0, len(generated))
	for name := range generated {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		topo, ok := topos[name]
		if !ok {
			return fmt.Errorf("agent %s: process %q has no topology", base, name)
		}
		qualified := base.String() + domain.PathSeparator + name
		if err := e.addProcess(tree, procs, qualified, generated[name], topo, base.String(), redeclare); err != nil {
			return err
		}
	}
	return nil
}

// dropAgentProcesses removes every process owned by the agent from procs.
func dropAgentProcesses(procs map[string]*boundProcess, agentKey string) {
	for name, b := range procs {
		if b.agent == agentKey {
			delete(procs, name)
		}
	}
}

// Now returns the simulated time of the next cycle.
func (e *Engine) Now() float64 {
	return e.now
}

// Cycles returns the number of committed cycles.
func (e *Engine) Cycles() uint64 {
	return e.cycles
}

// Tree exposes the live state tree. Callers must not mutate it while a
// run is in progress.
func (e *Engine) Tree() *domain.Tree {
	return e.tree
}

// ProcessNames returns the registered process names, sorted.
func (e *Engine) ProcessNames() []string {
	names := make([]string, 0, len(e.procs))
	for name := range e.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topologies returns every process's wiring as port to path strings.
func (e *Engine) Topologies() map[string]map[string]string {
	out := make(map[string]map[string]string, len(e.procs))
	for name, b := range e.procs {
		out[name] = b.topo.Strings()
	}
	return out
}

// Derivers returns the names of derive-phase processes, sorted.
func (e *Engine) Derivers() []string {
	names := make([]string, 0)
	for name, b := range e.procs {
		if b.deriver() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Agents returns the base paths of registered agent subtrees, sorted.
func (e *Engine) Agents() []string {
	bases := make([]string, 0, len(e.agents))
	for base := range e.agents {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	return bases
}

// Snapshot captures the current state for persistence.
func (e *Engine) Snapshot(id string) *domain.Snapshot {
	return &domain.Snapshot{
		ID:       id,
		Time:     e.now,
		State:    e.tree.Nested(),
		Topology: e.Topologies(),
		SavedAt:  time.Now().UTC(),
	}
}

// Restore overwrites the tree's values and the clock from a snapshot taken
// under the same composition. Every process runs again at the restored
// time.
func (e *Engine) Restore(snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrSnapshotNotFound)
	}
	if err := e.tree.SetNested(snapshot.State); err != nil {
		return fmt.Errorf("restore %q: %w", snapshot.ID, err)
	}
	e.now = snapshot.Time
	for _, b := range e.procs {
		b.nextRun = e.now
	}
	return nil
}

// ordinary returns the non-deriver processes.
func (e *Engine) ordinary() []*boundProcess {
	out := make([]*boundProcess, 0, len(e.procs))
	for _, b := range e.procs {
		if !b.deriver() {
			out = append(out, b)
		}
	}
	return out
}

// Run advances cycles while the next due time lies before the horizon.
// It stops early when the context is cancelled or no timed processes
// remain. A horizon at or behind the current time is a no-op.
func (e *Engine) Run(ctx context.Context, horizon float64) error {
	if len(e.ordinary()) == 0 {
		return fmt.Errorf("no timed processes registered")
	}
	for e.now+timeEps < horizon {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Step(ctx); err != nil {
			return err
		}
		if len(e.ordinary()) == 0 {
			e.logger.Info("run ended early: no timed processes remain", "time", e.now)
			return nil
		}
	}
	return nil
}
