package domain

import (
	"context"
	"testing"
)

func TestCombineHooks(t *testing.T) {
	var order []string
	a := LifecycleHooks{
		OnCycle: func(context.Context, *CycleEvent) { order = append(order, "a.cycle") },
		OnEmit:  func(context.Context, *EmitEvent) { order = append(order, "a.emit") },
	}
	b := LifecycleHooks{
		OnCycle:   func(context.Context, *CycleEvent) { order = append(order, "b.cycle") },
		OnProcess: func(context.Context, *ProcessEvent) { order = append(order, "b.process") },
	}

	combined := CombineHooks(a, b)
	ctx := context.Background()

	combined.OnCycle(ctx, &CycleEvent{})
	combined.OnProcess(ctx, &ProcessEvent{})
	combined.OnEmit(ctx, &EmitEvent{})

	want := []string{"a.cycle", "b.cycle", "b.process", "a.emit"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	if combined.OnDivide != nil {
		t.Error("unset hooks should stay nil after combining")
	}
}

func TestCombineHooksEmpty(t *testing.T) {
	combined := CombineHooks()
	if combined.OnCycle != nil || combined.OnEmit != nil {
		t.Error("combining nothing should produce zero hooks")
	}
}
