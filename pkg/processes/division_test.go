package processes

import (
	"context"
	"testing"

	"github.com/aretw0/microcosm/pkg/domain"
)

func TestDivisionBelowThreshold(t *testing.T) {
	d, err := NewDivision(DivisionConfig{Threshold: 2000})
	if err != nil {
		t.Fatalf("NewDivision: %v", err)
	}
	view := portView(t, d, map[string]map[string]any{"trigger": {"mass": 1999.0}})

	update, err := d.Next(context.Background(), 1, view)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !update.IsZero() {
		t.Errorf("divided below threshold: %+v", update)
	}
}

func TestDivisionAtThreshold(t *testing.T) {
	d, err := NewDivision(DivisionConfig{Threshold: 2000})
	if err != nil {
		t.Fatalf("NewDivision: %v", err)
	}
	for _, mass := range []float64{2000, 2500} {
		view := portView(t, d, map[string]map[string]any{"trigger": {"mass": mass}})
		update, err := d.Next(context.Background(), 1, view)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if len(update.Directives) != 1 {
			t.Fatalf("at mass %v got %d directives, want 1", mass, len(update.Directives))
		}
		dir := update.Directives[0]
		if dir.Kind != domain.DirectiveDivide {
			t.Errorf("directive kind = %v, want divide", dir.Kind)
		}
		if dir.Port != "agent" {
			t.Errorf("directive port = %q, want agent", dir.Port)
		}
		if len(update.Entries) != 0 {
			t.Errorf("division wrote entries: %+v", update.Entries)
		}
	}
}

func TestDivisionCustomVariable(t *testing.T) {
	d, err := NewDivision(DivisionConfig{Threshold: 3, Variable: "volume"})
	if err != nil {
		t.Fatalf("NewDivision: %v", err)
	}
	if _, ok := d.Schema()["trigger"]["volume"]; !ok {
		t.Fatal("schema does not observe volume")
	}
	view := portView(t, d, map[string]map[string]any{"trigger": {"volume": 4.0}})
	update, err := d.Next(context.Background(), 1, view)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(update.Directives) != 1 {
		t.Errorf("got %d directives, want 1", len(update.Directives))
	}
}

func TestNewDivisionRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  DivisionConfig
	}{
		{"zero threshold", DivisionConfig{}},
		{"negative threshold", DivisionConfig{Threshold: -5}},
		{"bad variable", DivisionConfig{Threshold: 1, Variable: "a/b"}},
		{"negative timestep", DivisionConfig{Threshold: 1, TimeStep: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDivision(tc.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
