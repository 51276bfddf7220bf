package compiler

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestParse_BindingNetwork(t *testing.T) {
	n, err := Parse([]string{
		"A + B -> AB @ 0.5",
		"AB -> A + B @ 0.1",
		"AB -> 0 @ 0.01",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got, want := n.Species, []string{"A", "B", "AB"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("species = %v, want %v", got, want)
	}
	if len(n.Reactions) != 3 {
		t.Fatalf("got %d reactions, want 3", len(n.Reactions))
	}

	wantStoich := [][]int64{
		{-1, -1, 1},
		{1, 1, -1},
		{0, 0, -1},
	}
	for i, want := range wantStoich {
		if got := n.Reactions[i].Stoichiometry; !reflect.DeepEqual(got, want) {
			t.Errorf("reaction %d stoichiometry = %v, want %v", i, got, want)
		}
	}
	if n.Reactions[0].Rate != 0.5 || n.Reactions[1].Rate != 0.1 || n.Reactions[2].Rate != 0.01 {
		t.Errorf("rates = %v %v %v", n.Reactions[0].Rate, n.Reactions[1].Rate, n.Reactions[2].Rate)
	}
	if got := n.Reactions[0].Name; got != "A + B -> AB @ 0.5" {
		t.Errorf("reaction name = %q", got)
	}
}

func TestParse_PadsEarlierReactions(t *testing.T) {
	n, err := Parse([]string{
		"A -> B @ 1",
		"B -> C @ 1",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := n.Reactions[0].Stoichiometry, []int64{-1, 1, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("first reaction = %v, want %v (padded for species seen later)", got, want)
	}
	if got, want := n.Reactions[1].Stoichiometry, []int64{0, -1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("second reaction = %v, want %v", got, want)
	}
}

func TestParse_Coefficients(t *testing.T) {
	n, err := Parse([]string{"2 H + O -> H2O @ 1e-3"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := n.Reactions[0].Stoichiometry, []int64{-2, -1, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("stoichiometry = %v, want %v", got, want)
	}

	// Repeating a species accumulates, so dimerization can also be
	// written without a coefficient.
	n, err = Parse([]string{"A + A -> A2 @ 1"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := n.Reactions[0].Stoichiometry, []int64{-2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("stoichiometry = %v, want %v", got, want)
	}
}

func TestParse_EmptySides(t *testing.T) {
	n, err := Parse([]string{
		"0 -> X @ 2.0",
		"X -> 0 @ 0.3",
		"-> X @ 1.5",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := [][]int64{{1}, {-1}, {1}}
	for i := range want {
		if got := n.Reactions[i].Stoichiometry; !reflect.DeepEqual(got, want[i]) {
			t.Errorf("reaction %d stoichiometry = %v, want %v", i, got, want[i])
		}
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name     string
		equation string
		wantErr  string
	}{
		{"missing rate", "A -> B", `missing "@ rate"`},
		{"missing arrow", "A + B @ 1", `missing "->"`},
		{"bad rate", "A -> B @ fast", "not a number"},
		{"negative rate", "A -> B @ -1", "non-negative"},
		{"catalyst", "E + S -> E + P @ 1", "both sides"},
		{"nothing", "-> @ 1", "no species on either side"},
		{"bad coefficient", "two words -> B @ 1", `coefficient "two"`},
		{"separator in name", "A/B -> C @ 1", `species "A/B"`},
		{"zero mixed in", "0 + A -> B @ 1", "empty side"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]string{tc.equation})
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error containing %q", tc.equation, tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Parse(%q) error = %v, want substring %q", tc.equation, err, tc.wantErr)
			}
		})
	}

	if _, err := Parse(nil); err == nil {
		t.Error("Parse(nil) succeeded, want error")
	}
}

func TestNetwork_CountsAndAmounts(t *testing.T) {
	n, err := Parse([]string{"A + B -> AB @ 0.5"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	counts, err := n.Counts(map[string]int64{"A": 10, "AB": 3})
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if want := []int64{10, 0, 3}; !reflect.DeepEqual(counts, want) {
		t.Errorf("counts = %v, want %v", counts, want)
	}

	amounts, err := n.Amounts(counts)
	if err != nil {
		t.Fatalf("Amounts failed: %v", err)
	}
	if amounts["A"] != 10 || amounts["B"] != 0 || amounts["AB"] != 3 {
		t.Errorf("amounts = %v", amounts)
	}

	if _, err := n.Counts(map[string]int64{"Z": 1}); err == nil {
		t.Error("Counts with unknown species succeeded, want error")
	}
	if _, err := n.Amounts([]int64{1, 2}); err == nil {
		t.Error("Amounts with short vector succeeded, want error")
	}

	if i, ok := n.Index("B"); !ok || i != 1 {
		t.Errorf("Index(B) = %d, %v", i, ok)
	}
	if _, ok := n.Index("Z"); ok {
		t.Error("Index(Z) reported ok for unknown species")
	}
}

func TestNetwork_System(t *testing.T) {
	n, err := Parse([]string{
		"S -> P @ 0.5",
		"P -> 0 @ 0.1",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	sys, err := n.System()
	if err != nil {
		t.Fatalf("System failed: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	res, err := sys.Evolve(rng, 10, []int64{100, 0})
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if res.Counts[0] < 0 || res.Counts[1] < 0 {
		t.Errorf("counts went negative: %v", res.Counts)
	}
	if res.Counts[0] >= 100 {
		t.Errorf("substrate did not react: %v", res.Counts)
	}
}
