package domain

import (
	"reflect"
	"sort"
)

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on a client
// watching a run, and feeds the end-of-run change report.
type SnapshotDiff struct {
	// ID is always present to identify the run.
	ID string `json:"id"`

	// Time is set when the simulated clock moved.
	Time *float64 `json:"time,omitempty"`

	// State contains only changed or added leaf paths with their new
	// values. For removals (a deleted agent subtree, say), the path is
	// present with a nil value. Clients merge these into their local
	// copy.
	State map[string]any `json:"state,omitempty"`

	// Processes lists wiring changes: processes that appeared (division
	// daughters) and disappeared (removed agents).
	Processes *ProcessDelta `json:"processes,omitempty"`
}

// ProcessDelta represents changes to the registered process set.
type ProcessDelta struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// DiffSnapshots calculates the difference between old and new.
// If old is nil, it returns a diff carrying the entire new snapshot
// (initial load). A nil result means nothing changed.
func DiffSnapshots(old, new *Snapshot) *SnapshotDiff {
	if new == nil {
		return nil
	}

	diff := &SnapshotDiff{
		ID: new.ID,
	}

	if old == nil || old.Time != new.Time {
		diff.Time = &new.Time
	}

	diff.State = diffState(old, new)
	diff.Processes = diffProcesses(old, new)

	if diff.Time == nil && len(diff.State) == 0 && diff.Processes == nil {
		return nil
	}
	return diff
}

func diffState(old, new *Snapshot) map[string]any {
	newFlat := FlattenState(new.State)

	var oldFlat map[string]any
	if old != nil {
		oldFlat = FlattenState(old.State)
	}

	delta := make(map[string]any)
	for path, newVal := range newFlat {
		oldVal, exists := oldFlat[path]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[path] = newVal
		}
	}
	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			delta[path] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffProcesses(old, new *Snapshot) *ProcessDelta {
	var oldTopo map[string]map[string]string
	if old != nil {
		oldTopo = old.Topology
	}

	delta := &ProcessDelta{}
	for name := range new.Topology {
		if _, exists := oldTopo[name]; !exists {
			delta.Added = append(delta.Added, name)
		}
	}
	for name := range oldTopo {
		if _, exists := new.Topology[name]; !exists {
			delta.Removed = append(delta.Removed, name)
		}
	}

	if len(delta.Added) == 0 && len(delta.Removed) == 0 {
		return nil
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Removed)
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d == nil ||
		(d.Time == nil && len(d.State) == 0 && d.Processes == nil)
}

// FlattenState reduces a nested state map to leaf values keyed by their
// slash-joined path.
func FlattenState(state map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(m map[string]any, prefix string)
	walk = func(m map[string]any, prefix string) {
		for k, v := range m {
			path := k
			if prefix != "" {
				path = prefix + PathSeparator + k
			}
			if sub, ok := v.(map[string]any); ok {
				walk(sub, path)
				continue
			}
			out[path] = v
		}
	}
	walk(state, "")
	return out
}
