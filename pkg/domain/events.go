package domain

import (
	"context"
	"time"
)

// CycleEvent describes one committed scheduler cycle.
type CycleEvent struct {
	Time      float64
	Processes int
	Duration  time.Duration
}

// ProcessEvent describes one process invocation.
type ProcessEvent struct {
	Time     float64
	Process  string
	Duration time.Duration
	Err      error
}

// StructureEvent describes a committed structural mutation.
type StructureEvent struct {
	Time      float64
	Process   string
	Kind      DirectiveKind
	Path      Path
	Daughters [2]string
}

// EmitEvent describes one emitted sample.
type EmitEvent struct {
	Time   float64
	Values int
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and run synchronously on the scheduler goroutine, so they must
// return quickly.
type LifecycleHooks struct {
	OnCycle   func(context.Context, *CycleEvent)
	OnProcess func(context.Context, *ProcessEvent)
	OnDivide  func(context.Context, *StructureEvent)
	OnRemove  func(context.Context, *StructureEvent)
	OnEmit    func(context.Context, *EmitEvent)
}

// CombineHooks chains hook sets so several consumers (logging, metrics,
// recorders) each see every event. Hooks fire in argument order.
func CombineHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		out.OnCycle = chainHook(out.OnCycle, h.OnCycle)
		out.OnProcess = chainHook(out.OnProcess, h.OnProcess)
		out.OnDivide = chainHook(out.OnDivide, h.OnDivide)
		out.OnRemove = chainHook(out.OnRemove, h.OnRemove)
		out.OnEmit = chainHook(out.OnEmit, h.OnEmit)
	}
	return out
}

func chainHook[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *E) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
