package runtime

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/microcosm/pkg/domain"
)

// execution carries one process invocation's outcome across the join.
type execution struct {
	proc     *boundProcess
	update   domain.Update
	err      error
	duration time.Duration
}

// Step runs one scheduler cycle: select the due processes, project their
// views from the pre-cycle tree, execute them in parallel, then merge,
// mutate, derive and emit against a working clone. The live tree and the
// process registry only change if the whole cycle succeeds.
func (e *Engine) Step(ctx context.Context) error {
	due := e.selectDue()
	if len(due) == 0 {
		return fmt.Errorf("no process is due at time %v", e.now)
	}
	started := time.Now()

	// Every due process observes the same pre-cycle snapshot.
	views := make([]domain.View, len(due))
	for i, b := range due {
		view, err := e.tree.Project(b.schema, b.topo)
		if err != nil {
			return fmt.Errorf("project %q: %w", b.name, err)
		}
		views[i] = view
	}

	executions := e.execute(ctx, due, views)
	for _, ex := range executions {
		e.emitProcess(ctx, &domain.ProcessEvent{
			Time:     e.now,
			Process:  ex.proc.name,
			Duration: ex.duration,
			Err:      ex.err,
		})
		if ex.err != nil {
			if e.strict {
				return fmt.Errorf("process %q at t=%v: %w", ex.proc.name, e.now, ex.err)
			}
			e.logger.Warn("process failed, update dropped",
				"process", ex.proc.name, "time", e.now, "err", ex.err)
		}
	}

	work := e.tree.Clone()
	directives, err := e.merge(work, executions)
	if err != nil {
		return err
	}

	// Registry changes stage alongside the working tree so an aborted
	// cycle leaves the engine untouched.
	procs, agents := e.stageRegistry()
	if err := e.mutate(ctx, work, procs, agents, directives); err != nil {
		return err
	}

	if err := e.derive(ctx, work, procs); err != nil {
		return err
	}

	// Commit.
	e.tree = work
	e.procs = procs
	e.agents = agents
	for _, b := range due {
		if _, alive := procs[b.name]; alive {
			b.nextRun += b.timestep
		}
	}
	e.cycles++
	e.emitCycle(ctx, &domain.CycleEvent{
		Time:      e.now,
		Processes: len(due),
		Duration:  time.Since(started),
	})

	if err := e.emitSample(ctx); err != nil {
		return err
	}

	e.advance()
	return nil
}

// selectDue returns the timed processes whose next run has arrived, in
// name order. When the engine is idle at a gap (after a restore, say) it
// first advances the clock to the earliest pending run.
func (e *Engine) selectDue() []*boundProcess {
	ordinary := e.ordinary()
	if len(ordinary) == 0 {
		return nil
	}
	next := math.Inf(1)
	for _, b := range ordinary {
		if b.nextRun < next {
			next = b.nextRun
		}
	}
	if next > e.now+timeEps {
		e.now = next
	}
	due := make([]*boundProcess, 0, len(ordinary))
	for _, b := range ordinary {
		if b.nextRun <= e.now+timeEps {
			due = append(due, b)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })
	return due
}

// execute runs every due process concurrently. Each one reads only its own
// view and writes only its own update, so the only synchronization is the
// final join.
func (e *Engine) execute(ctx context.Context, due []*boundProcess, views []domain.View) []execution {
	executions := make([]execution, len(due))
	var wg sync.WaitGroup
	for i, b := range due {
		wg.Add(1)
		go func(i int, b *boundProcess) {
			defer wg.Done()
			started := time.Now()
			update, err := b.proc.Next(ctx, b.timestep, views[i])
			executions[i] = execution{proc: b, update: update, err: err, duration: time.Since(started)}
		}(i, b)
	}
	wg.Wait()
	return executions
}

// stageRegistry shallow-copies the process and agent maps; the entries
// themselves are shared until the cycle commits.
func (e *Engine) stageRegistry() (map[string]*boundProcess, map[string]*agentEntry) {
	procs := make(map[string]*boundProcess, len(e.procs))
	for name, b := range e.procs {
		procs[name] = b
	}
	agents := make(map[string]*agentEntry, len(e.agents))
	for key, a := range e.agents {
		agents[key] = a
	}
	return procs, agents
}

// derive re-runs every deriver against the post-merge state, in name
// order, applying each update before the next deriver projects.
func (e *Engine) derive(ctx context.Context, work *domain.Tree, procs map[string]*boundProcess) error {
	derivers := make([]*boundProcess, 0)
	for _, b := range procs {
		if b.deriver() {
			derivers = append(derivers, b)
		}
	}
	sort.Slice(derivers, func(i, j int) bool { return derivers[i].name < derivers[j].name })

	for _, b := range derivers {
		view, err := work.Project(b.schema, b.topo)
		if err != nil {
			return fmt.Errorf("project deriver %q: %w", b.name, err)
		}
		started := time.Now()
		update, err := b.proc.Next(ctx, 0, view)
		e.emitProcess(ctx, &domain.ProcessEvent{
			Time:     e.now,
			Process:  b.name,
			Duration: time.Since(started),
			Err:      err,
		})
		if err != nil {
			if e.strict {
				return fmt.Errorf("deriver %q at t=%v: %w", b.name, e.now, err)
			}
			e.logger.Warn("deriver failed, update dropped",
				"process", b.name, "time", e.now, "err", err)
			continue
		}
		if len(update.Directives) > 0 {
			e.logger.Warn("deriver directives ignored", "process", b.name, "time", e.now)
		}
		if err := e.applyUpdate(work, b, update); err != nil {
			return err
		}
	}
	return nil
}

// emitSample sends the emit-marked variables to the configured emitter.
func (e *Engine) emitSample(ctx context.Context) error {
	if e.emitter == nil {
		return nil
	}
	sample := domain.Sample{Time: e.now, Values: e.tree.Emitted()}
	if err := e.emitter.Emit(ctx, sample); err != nil {
		return fmt.Errorf("emit at t=%v: %w", e.now, err)
	}
	e.emitEmit(ctx, &domain.EmitEvent{Time: e.now, Values: len(sample.Values)})
	return nil
}

// advance moves the clock to the earliest pending run.
func (e *Engine) advance() {
	next := math.Inf(1)
	for _, b := range e.ordinary() {
		if b.nextRun < next {
			next = b.nextRun
		}
	}
	if !math.IsInf(next, 1) {
		e.now = next
	}
}

func (e *Engine) emitCycle(ctx context.Context, ev *domain.CycleEvent) {
	if e.hooks.OnCycle != nil {
		e.hooks.OnCycle(ctx, ev)
	}
}

func (e *Engine) emitProcess(ctx context.Context, ev *domain.ProcessEvent) {
	if e.hooks.OnProcess != nil {
		e.hooks.OnProcess(ctx, ev)
	}
}

func (e *Engine) emitDivide(ctx context.Context, ev *domain.StructureEvent) {
	if e.hooks.OnDivide != nil {
		e.hooks.OnDivide(ctx, ev)
	}
}

func (e *Engine) emitRemove(ctx context.Context, ev *domain.StructureEvent) {
	if e.hooks.OnRemove != nil {
		e.hooks.OnRemove(ctx, ev)
	}
}

func (e *Engine) emitEmit(ctx context.Context, ev *domain.EmitEvent) {
	if e.hooks.OnEmit != nil {
		e.hooks.OnEmit(ctx, ev)
	}
}
