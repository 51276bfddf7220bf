package processes

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/microcosm/pkg/domain"
)

func bindingReactions(t *testing.T, seed int64) *Reactions {
	t.Helper()
	r, err := NewReactions(ReactionsConfig{
		Reactions: []string{"A + B -> AB @ 0.5"},
		Counts:    map[string]int64{"A": 30, "B": 20},
		TimeStep:  1,
		Seed:      seed,
	})
	if err != nil {
		t.Fatalf("NewReactions: %v", err)
	}
	return r
}

func TestReactionsSchema(t *testing.T) {
	r := bindingReactions(t, 1)
	molecules, ok := r.Schema()["molecules"]
	if !ok {
		t.Fatal("schema missing molecules port")
	}
	for name, want := range map[string]int64{"A": 30, "B": 20, "AB": 0} {
		v, ok := molecules[name]
		if !ok {
			t.Fatalf("schema missing species %q", name)
		}
		if v.Value != want {
			t.Errorf("initial %s = %v, want %d", name, v.Value, want)
		}
		if !v.NonNegative || !v.Emit {
			t.Errorf("%s: NonNegative=%v Emit=%v, want both true", name, v.NonNegative, v.Emit)
		}
		if v.Divider != domain.DividerSplit {
			t.Errorf("%s divider = %v, want split", name, v.Divider)
		}
	}
}

func TestReactionsConserveBindingPairs(t *testing.T) {
	r := bindingReactions(t, 7)
	view := portView(t, r, nil)

	update, err := r.Next(context.Background(), 1, view)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	delta := func(name string) int64 {
		e, ok := update.Entries["molecules"][name]
		if !ok {
			return 0
		}
		return e.Value.(int64)
	}
	dA, dB, dAB := delta("A"), delta("B"), delta("AB")

	// Every binding event consumes one A and one B and produces one AB.
	if dA != dB || dAB != -dA {
		t.Errorf("deltas A=%d B=%d AB=%d violate stoichiometry", dA, dB, dAB)
	}
	if dB < -20 || dB > 0 {
		t.Errorf("B delta %d outside [-20, 0]", dB)
	}
	// Propensity starts at 300; a whole unit with zero events would need an
	// exponential draw beyond anything the generator produces.
	if dAB == 0 {
		t.Error("no binding events over a full time unit")
	}
}

func TestReactionsSameSeedSameTrajectory(t *testing.T) {
	run := func() domain.Update {
		r := bindingReactions(t, 99)
		update, err := r.Next(context.Background(), 1, portView(t, r, nil))
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		return update
	}
	first, second := run(), run()
	if !reflect.DeepEqual(first.Entries, second.Entries) {
		t.Errorf("same seed diverged: %v vs %v", first.Entries, second.Entries)
	}
}

func TestReactionsDefaults(t *testing.T) {
	r, err := NewReactions(ReactionsConfig{Reactions: []string{"X -> 0 @ 0.5"}})
	if err != nil {
		t.Fatalf("NewReactions: %v", err)
	}
	if got := r.TimeStep(); got != 1 {
		t.Errorf("default timestep = %v, want 1", got)
	}
	if v := r.Schema()["molecules"]["X"].Value; v != int64(0) {
		t.Errorf("unlisted species starts at %v, want 0", v)
	}
}

func TestReactionsConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  ReactionsConfig
		want string
	}{
		{"no equations", ReactionsConfig{}, "no reactions"},
		{"bad equation", ReactionsConfig{Reactions: []string{"A -> B"}}, "@ rate"},
		{"unknown species count", ReactionsConfig{
			Reactions: []string{"A -> B @ 1"},
			Counts:    map[string]int64{"C": 5},
		}, `unknown species "C"`},
		{"negative count", ReactionsConfig{
			Reactions: []string{"A -> B @ 1"},
			Counts:    map[string]int64{"A": -1},
		}, "negative initial count"},
		{"negative timestep", ReactionsConfig{
			Reactions: []string{"A -> B @ 1"},
			TimeStep:  -2,
		}, "negative time step"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewReactions(tc.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestReactionsRejectsNonPositiveInterval(t *testing.T) {
	r := bindingReactions(t, 1)
	if _, err := r.Next(context.Background(), 0, portView(t, r, nil)); err == nil {
		t.Fatal("expected error for zero timestep")
	}
}
