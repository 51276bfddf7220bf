package processes

import (
	"context"
	"math"
	"testing"

	"github.com/aretw0/microcosm/pkg/domain"
)

func TestGrowthDoublesAtLn2(t *testing.T) {
	g, err := NewGrowth(GrowthConfig{Rate: math.Ln2, InitialMass: 1000, TimeStep: 1})
	if err != nil {
		t.Fatalf("NewGrowth: %v", err)
	}
	view := portView(t, g, map[string]map[string]any{"global": {"mass": 1000.0}})

	update, err := g.Next(context.Background(), 1, view)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	entry, ok := update.Entries["global"]["mass"]
	if !ok {
		t.Fatal("no mass entry in update")
	}
	got := entry.Value.(float64)
	if math.Abs(got-2000) > 1e-9 {
		t.Errorf("mass after one doubling time = %v, want 2000", got)
	}
}

func TestGrowthScalesWithTimestep(t *testing.T) {
	g, err := NewGrowth(GrowthConfig{Rate: 0.1, InitialMass: 500})
	if err != nil {
		t.Fatalf("NewGrowth: %v", err)
	}
	view := portView(t, g, map[string]map[string]any{"global": {"mass": 500.0}})

	update, err := g.Next(context.Background(), 2.5, view)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	want := 500 * math.Exp(0.1*2.5)
	got := update.Entries["global"]["mass"].Value.(float64)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("mass = %v, want %v", got, want)
	}
}

func TestGrowthSchema(t *testing.T) {
	g, err := NewGrowth(GrowthConfig{Rate: 0.01, InitialMass: 1200})
	if err != nil {
		t.Fatalf("NewGrowth: %v", err)
	}
	mass, ok := g.Schema()["global"]["mass"]
	if !ok {
		t.Fatal("schema missing global/mass")
	}
	if mass.Value != 1200.0 {
		t.Errorf("initial mass = %v, want 1200", mass.Value)
	}
	// Growth replaces the value outright, and halves it on division.
	if mass.Updater != domain.UpdaterSet {
		t.Errorf("updater = %v, want set", mass.Updater)
	}
	if mass.Divider != domain.DividerSplit {
		t.Errorf("divider = %v, want split", mass.Divider)
	}
	if !mass.Emit {
		t.Error("mass should be emitted")
	}
	if !mass.NonNegative {
		t.Error("mass should be non-negative")
	}
}

func TestGrowthDefaults(t *testing.T) {
	g, err := NewGrowth(GrowthConfig{Rate: 0.5})
	if err != nil {
		t.Fatalf("NewGrowth: %v", err)
	}
	if g.TimeStep() != 1 {
		t.Errorf("default timestep = %v, want 1", g.TimeStep())
	}
	if got := g.Schema()["global"]["mass"].Value; got != 1000.0 {
		t.Errorf("default initial mass = %v, want 1000", got)
	}
}

func TestNewGrowthRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  GrowthConfig
	}{
		{"zero rate", GrowthConfig{}},
		{"negative rate", GrowthConfig{Rate: -0.1}},
		{"negative mass", GrowthConfig{Rate: 0.1, InitialMass: -1}},
		{"negative timestep", GrowthConfig{Rate: 0.1, TimeStep: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGrowth(tc.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
