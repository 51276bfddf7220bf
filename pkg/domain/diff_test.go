package domain

import (
	"reflect"
	"testing"
)

func snapAt(t float64, state map[string]any, topo map[string]map[string]string) *Snapshot {
	return &Snapshot{ID: "run-1", Time: t, State: state, Topology: topo}
}

func TestDiffSnapshots_InitialLoad(t *testing.T) {
	next := snapAt(0, map[string]any{
		"cell": map[string]any{"mass": 1.0},
	}, map[string]map[string]string{"growth": {"cell": "cell"}})

	diff := DiffSnapshots(nil, next)
	if diff == nil {
		t.Fatal("initial load must produce a diff")
	}
	if diff.Time == nil || *diff.Time != 0 {
		t.Error("initial diff must carry the time")
	}
	if diff.State["cell/mass"] != 1.0 {
		t.Errorf("expected full state, got %v", diff.State)
	}
	if diff.Processes == nil || !reflect.DeepEqual(diff.Processes.Added, []string{"growth"}) {
		t.Errorf("expected growth added, got %+v", diff.Processes)
	}
}

func TestDiffSnapshots_NoChange(t *testing.T) {
	a := snapAt(5, map[string]any{"cell": map[string]any{"mass": 1.0}}, nil)
	b := snapAt(5, map[string]any{"cell": map[string]any{"mass": 1.0}}, nil)

	if diff := DiffSnapshots(a, b); diff != nil {
		t.Errorf("expected nil diff for identical snapshots, got %+v", diff)
	}
}

func TestDiffSnapshots_ValueChange(t *testing.T) {
	a := snapAt(5, map[string]any{"cell": map[string]any{"mass": 1.0, "volume": 2.0}}, nil)
	b := snapAt(6, map[string]any{"cell": map[string]any{"mass": 1.5, "volume": 2.0}}, nil)

	diff := DiffSnapshots(a, b)
	if diff == nil {
		t.Fatal("expected a diff")
	}
	if *diff.Time != 6 {
		t.Errorf("expected time 6, got %v", *diff.Time)
	}
	if len(diff.State) != 1 || diff.State["cell/mass"] != 1.5 {
		t.Errorf("expected only cell/mass=1.5, got %v", diff.State)
	}
}

func TestDiffSnapshots_RemovalMarker(t *testing.T) {
	a := snapAt(9, map[string]any{
		"agents": map[string]any{"0": map[string]any{"mass": 2.0}},
	}, map[string]map[string]string{"agents/0/growth": {"cell": "agents/0"}})
	b := snapAt(9, map[string]any{
		"agents": map[string]any{
			"0_0": map[string]any{"mass": 1.0},
			"0_1": map[string]any{"mass": 1.0},
		},
	}, map[string]map[string]string{
		"agents/0_0/growth": {"cell": "agents/0_0"},
		"agents/0_1/growth": {"cell": "agents/0_1"},
	})

	diff := DiffSnapshots(a, b)
	if diff == nil {
		t.Fatal("expected a diff")
	}
	if val, present := diff.State["agents/0/mass"]; !present || val != nil {
		t.Errorf("removed path must carry a nil marker, got %v (present=%v)", val, present)
	}
	if diff.State["agents/0_0/mass"] != 1.0 || diff.State["agents/0_1/mass"] != 1.0 {
		t.Errorf("daughters missing from diff: %v", diff.State)
	}

	wantAdded := []string{"agents/0_0/growth", "agents/0_1/growth"}
	wantRemoved := []string{"agents/0/growth"}
	if !reflect.DeepEqual(diff.Processes.Added, wantAdded) {
		t.Errorf("expected added %v, got %v", wantAdded, diff.Processes.Added)
	}
	if !reflect.DeepEqual(diff.Processes.Removed, wantRemoved) {
		t.Errorf("expected removed %v, got %v", wantRemoved, diff.Processes.Removed)
	}
}

func TestDiffSnapshots_TimeOnly(t *testing.T) {
	a := snapAt(1, map[string]any{"x": 1.0}, nil)
	b := snapAt(2, map[string]any{"x": 1.0}, nil)

	diff := DiffSnapshots(a, b)
	if diff == nil || diff.Time == nil || *diff.Time != 2 {
		t.Fatalf("expected time-only diff, got %+v", diff)
	}
	if len(diff.State) != 0 {
		t.Errorf("state should be empty, got %v", diff.State)
	}
	if diff.IsEmpty() {
		t.Error("a moved clock is not an empty diff")
	}
}

func TestFlattenState(t *testing.T) {
	flat := FlattenState(map[string]any{
		"a": map[string]any{"b": 1.0, "c": map[string]any{"d": "x"}},
		"e": int64(2),
	})
	want := map[string]any{"a/b": 1.0, "a/c/d": "x", "e": int64(2)}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("expected %v, got %v", want, flat)
	}
}
