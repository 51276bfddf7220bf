package microcosm_test

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/pkg/adapters/memory"
	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/schema"
)

func growthDefinition() composition.Definition {
	return composition.Definition{
		Name:    "growing-cell",
		Horizon: 5,
		Processes: []composition.ProcessSpec{
			{
				Name:     "growth",
				Kind:     "growth",
				Config:   map[string]any{"rate": math.Ln2},
				Topology: map[string]string{"global": "agents/0/cell"},
			},
		},
	}
}

func TestFacade_FromDefinition(t *testing.T) {
	exp, err := microcosm.FromDefinition(growthDefinition(), nil)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if exp.Name != "growing-cell" {
		t.Errorf("name = %q, want growing-cell", exp.Name)
	}

	ctx := context.Background()
	if err := exp.Run(ctx, 5); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exp.Now() != 5 {
		t.Errorf("Now = %v, want 5", exp.Now())
	}
	if exp.Cycles() != 5 {
		t.Errorf("Cycles = %d, want 5", exp.Cycles())
	}

	samples := exp.Timeseries()
	if len(samples) != 5 {
		t.Fatalf("got %d samples, want 5", len(samples))
	}
	last := samples[len(samples)-1].Values["agents/0/cell/mass"].(float64)
	if math.Abs(last-32000) > 1 {
		t.Errorf("mass after five doublings = %v, want ~32000", last)
	}

	series := exp.Series()
	if got := len(series["time"]); got != 5 {
		t.Errorf("time column has %d rows, want 5", got)
	}
}

func TestFacade_ExternalEmitterDisablesRecorder(t *testing.T) {
	sink := memory.NewEmitter()
	exp, err := microcosm.FromDefinition(growthDefinition(), nil, microcosm.WithEmitter(sink))
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	if err := exp.Run(context.Background(), 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := exp.Timeseries(); got != nil {
		t.Errorf("Timeseries with external emitter = %v, want nil", got)
	}
	if len(sink.Samples()) != 3 {
		t.Errorf("external emitter got %d samples, want 3", len(sink.Samples()))
	}
}

func TestFacade_RunWithoutProcesses(t *testing.T) {
	exp := microcosm.New()
	if err := exp.Run(context.Background(), 10); err == nil {
		t.Fatal("expected error for empty experiment")
	}
}

func TestFacade_RunHonorsCancellation(t *testing.T) {
	exp, err := microcosm.FromDefinition(growthDefinition(), nil)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := exp.Run(ctx, 5); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if exp.Now() != 0 {
		t.Errorf("clock moved to %v under cancelled context", exp.Now())
	}
}

func TestFacade_SnapshotRestore(t *testing.T) {
	exp, err := microcosm.FromDefinition(growthDefinition(), nil)
	if err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}
	ctx := context.Background()
	if err := exp.Run(ctx, 2); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := exp.Snapshot("checkpoint")
	if snap.Time != 2 {
		t.Fatalf("snapshot time = %v, want 2", snap.Time)
	}

	if err := exp.Run(ctx, 4); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := exp.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if exp.Now() != 2 {
		t.Errorf("Now after restore = %v, want 2", exp.Now())
	}
}

// seedProbe records the config it was constructed with.
type seedProbe struct {
	seed int64
}

func (p *seedProbe) Schema() domain.Schema { return domain.Schema{"global": {"tick": {}}} }
func (p *seedProbe) TimeStep() float64     { return 1 }
func (p *seedProbe) Next(context.Context, float64, domain.View) (domain.Update, error) {
	return domain.Update{}, nil
}

func TestFacade_DerivesPerProcessSeeds(t *testing.T) {
	var captured []int64
	cat := composition.NewCatalog()
	err := cat.Register("probe", func(config map[string]any) (ports.Process, error) {
		seed, _ := config["seed"].(int64)
		captured = append(captured, seed)
		return &seedProbe{seed: seed}, nil
	}, composition.WithConfigSchema(schema.Schema{"seed": schema.Optional(schema.Int())}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	def := composition.Definition{
		Name:    "seeded",
		Horizon: 1,
		Seed:    40,
		Processes: []composition.ProcessSpec{
			{Name: "first", Kind: "probe", Topology: map[string]string{"global": "a"}},
			{Name: "second", Kind: "probe", Topology: map[string]string{"global": "b"}},
			{Name: "third", Kind: "probe", Config: map[string]any{"seed": int64(7)}, Topology: map[string]string{"global": "c"}},
		},
	}
	if _, err := microcosm.FromDefinition(def, cat); err != nil {
		t.Fatalf("FromDefinition: %v", err)
	}

	// Unset seeds derive from the definition seed plus the process index;
	// an explicit seed wins.
	want := []int64{40, 41, 7}
	if !reflect.DeepEqual(captured, want) {
		t.Errorf("seeds = %v, want %v", captured, want)
	}
}

func TestFacade_ConstructionErrors(t *testing.T) {
	def := growthDefinition()
	def.Processes[0].Config = map[string]any{"rate": "fast"}
	_, err := microcosm.FromDefinition(def, nil)
	if err == nil {
		t.Fatal("expected config error")
	}
	for _, want := range []string{`process "growth"`, `"rate"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDefaultCatalogKinds(t *testing.T) {
	cat := microcosm.DefaultCatalog()
	want := []string{"concentrations", "division", "expression", "growth", "reactions", "timeline"}
	if got := cat.Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("kinds = %v, want %v", got, want)
	}
	for _, kind := range want {
		if cat.ConfigSchema(kind) == nil {
			t.Errorf("kind %q has no config schema", kind)
		}
	}
}

func TestDefaultCatalogConstructsReactions(t *testing.T) {
	cat := microcosm.DefaultCatalog()
	proc, topo, err := cat.Construct(composition.ProcessSpec{
		Name: "chemistry",
		Kind: "reactions",
		Config: map[string]any{
			"reactions": []any{"A + B -> AB @ 0.5"},
			"counts":    map[string]any{"A": int64(100), "B": int64(50)},
			"seed":      int64(3),
		},
		Topology: map[string]string{"molecules": "agents/0/cytoplasm"},
	})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if proc.TimeStep() != 1 {
		t.Errorf("timestep = %v, want default 1", proc.TimeStep())
	}
	if topo["molecules"].String() != "agents/0/cytoplasm" {
		t.Errorf("topology = %v", topo)
	}
}
