package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestUpdaterApply(t *testing.T) {
	tests := []struct {
		name     string
		updater  Updater
		current  any
		incoming any
		want     any
		wantErr  error
	}{
		{name: "Accumulate Ints Stay Int", updater: UpdaterAccumulate, current: int64(5), incoming: int64(3), want: int64(8)},
		{name: "Accumulate Negative Delta", updater: UpdaterAccumulate, current: int64(5), incoming: int64(-2), want: int64(3)},
		{name: "Accumulate Widens To Float", updater: UpdaterAccumulate, current: int64(5), incoming: 0.5, want: 5.5},
		{name: "Accumulate Floats", updater: UpdaterAccumulate, current: 1.25, incoming: 1.25, want: 2.5},
		{name: "Accumulate Non Numeric", updater: UpdaterAccumulate, current: "a", incoming: int64(1), wantErr: ErrSchemaViolation},
		{name: "Set Replaces", updater: UpdaterSet, current: int64(5), incoming: int64(42), want: int64(42)},
		{name: "Set Replaces Type", updater: UpdaterSet, current: int64(5), incoming: "label", want: "label"},
		{name: "Null Keeps Current", updater: UpdaterNull, current: int64(5), incoming: int64(99), want: int64(5)},
		{
			name:     "Merge Unions Maps",
			updater:  UpdaterMerge,
			current:  map[string]any{"a": int64(1), "b": int64(2)},
			incoming: map[string]any{"b": int64(3), "c": int64(4)},
			want:     map[string]any{"a": int64(1), "b": int64(3), "c": int64(4)},
		},
		{
			name:     "Merge Recurses Into Nested Maps",
			updater:  UpdaterMerge,
			current:  map[string]any{"inner": map[string]any{"x": int64(1), "y": int64(2)}},
			incoming: map[string]any{"inner": map[string]any{"y": int64(9)}},
			want:     map[string]any{"inner": map[string]any{"x": int64(1), "y": int64(9)}},
		},
		{
			name:     "Merge Overwrites Non Map Leaf",
			updater:  UpdaterMerge,
			current:  map[string]any{"x": int64(1)},
			incoming: map[string]any{"x": map[string]any{"deep": true}},
			want:     map[string]any{"x": map[string]any{"deep": true}},
		},
		{name: "Merge Needs Map Incoming", updater: UpdaterMerge, current: map[string]any{}, incoming: int64(1), wantErr: ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.updater.Apply(tt.current, tt.incoming)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSetDoesNotAliasIncoming(t *testing.T) {
	incoming := map[string]any{"k": int64(1)}
	got, err := UpdaterSet.Apply(nil, incoming)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	incoming["k"] = int64(99)
	if got.(map[string]any)["k"] != int64(1) {
		t.Error("set updater aliased the incoming map")
	}
}

func TestMergeDoesNotMutateCurrent(t *testing.T) {
	current := map[string]any{"a": int64(1)}
	if _, err := UpdaterMerge.Apply(current, map[string]any{"a": int64(5)}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if current["a"] != int64(1) {
		t.Error("merge updater mutated the current value in place")
	}
}

func TestParseUpdater(t *testing.T) {
	for _, name := range []string{"accumulate", "set", "merge", "null"} {
		u, err := ParseUpdater(name)
		if err != nil {
			t.Fatalf("ParseUpdater(%q): %v", name, err)
		}
		if u.String() != name {
			t.Errorf("round trip %q = %q", name, u.String())
		}
	}
	if _, err := ParseUpdater("bogus"); !errors.Is(err, ErrUnknownUpdater) {
		t.Errorf("err = %v, want ErrUnknownUpdater", err)
	}
}
