package runner

import (
	"testing"

	"github.com/aretw0/microcosm/pkg/domain"
)

func sampleAt(t float64, values map[string]any) domain.Sample {
	return domain.Sample{Time: t, Values: values}
}

func TestThin(t *testing.T) {
	filter := Thin(3)
	kept := 0
	for i := 0; i < 7; i++ {
		if _, keep := filter(sampleAt(float64(i), nil)); keep {
			kept++
		}
	}
	// Samples 0, 3 and 6 survive.
	if kept != 3 {
		t.Errorf("expected 3 kept samples, got %d", kept)
	}
}

func TestThin_BelowTwoKeepsEverything(t *testing.T) {
	filter := Thin(1)
	for i := 0; i < 5; i++ {
		if _, keep := filter(sampleAt(float64(i), nil)); !keep {
			t.Fatalf("sample %d dropped", i)
		}
	}
}

func TestPathPrefix(t *testing.T) {
	filter := PathPrefix("cell")

	s, keep := filter(sampleAt(1, map[string]any{
		"cell/mass":   2.5,
		"cells/count": int64(9),
		"env/glucose": 0.1,
	}))
	if !keep {
		t.Fatal("sample with matching values dropped")
	}
	if len(s.Values) != 1 || s.Values["cell/mass"] != 2.5 {
		t.Errorf("expected only cell/mass, got %v", s.Values)
	}

	if _, keep := filter(sampleAt(2, map[string]any{"env/glucose": 0.1})); keep {
		t.Error("sample without matching values kept")
	}
}

func TestMultiFilter(t *testing.T) {
	filter := MultiFilter(PathPrefix("cell"), Thin(2))

	keptTimes := []float64{}
	inputs := []map[string]any{
		{"cell/mass": 1.0},
		{"env/glucose": 0.5}, // dropped by prefix before Thin sees it
		{"cell/mass": 2.0},
		{"cell/mass": 3.0},
	}
	for i, values := range inputs {
		if s, keep := filter(sampleAt(float64(i), values)); keep {
			keptTimes = append(keptTimes, s.Time)
		}
	}
	if len(keptTimes) != 2 || keptTimes[0] != 0 || keptTimes[1] != 3 {
		t.Errorf("expected times [0 3], got %v", keptTimes)
	}
}

func TestFilteredHandler(t *testing.T) {
	inner := &recordingHandler{}
	h := Filtered(inner, Thin(2))

	if err := h.Begin(t.Context(), RunInfo{Name: "x"}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := h.Emit(t.Context(), sampleAt(float64(i), map[string]any{"v": i})); err != nil {
			t.Fatalf("Emit failed: %v", err)
		}
	}
	if err := h.End(t.Context(), Result{Cycles: 4}); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if len(inner.Began) != 1 || len(inner.Ended) != 1 || !inner.Closed {
		t.Error("Begin, End and Close must pass through")
	}
	if len(inner.Samples) != 2 {
		t.Errorf("expected 2 samples through Thin(2), got %d", len(inner.Samples))
	}
}
