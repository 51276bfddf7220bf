package composition

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

type stubProcess struct {
	schema domain.Schema
	step   float64
}

func (s *stubProcess) Schema() domain.Schema { return s.schema }
func (s *stubProcess) TimeStep() float64     { return s.step }
func (s *stubProcess) Next(context.Context, float64, domain.View) (domain.Update, error) {
	return domain.Update{}, nil
}

func stubFactory(schema domain.Schema) Factory {
	return func(domain.Path) (ports.Process, error) {
		return &stubProcess{schema: schema, step: 1}, nil
	}
}

func growthSchema() domain.Schema {
	return domain.Schema{
		"global": {"mass": domain.Variable{Value: 1000.0}},
	}
}

func TestBuilderWiresRelativeAndAbsolute(t *testing.T) {
	schema := domain.Schema{
		"internal": {"atp": domain.Variable{Value: int64(0)}},
		"external": {"glucose": domain.Variable{Value: int64(0)}},
	}
	comp, err := New().
		Add("metabolism", stubFactory(schema)).
		Bind("internal", "cytoplasm").
		BindAbsolute("external", domain.MustPath("environment")).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	base := domain.MustPath("agents", "cell0")
	_, topos, err := comp.Generate(base)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	topo := topos["metabolism"]
	if got, _ := topo.Resolve("internal"); !got.Equal(domain.MustPath("agents", "cell0", "cytoplasm")) {
		t.Errorf("internal bound to %v", got)
	}
	if got, _ := topo.Resolve("external"); !got.Equal(domain.MustPath("environment")) {
		t.Errorf("external must stay absolute, got %v", got)
	}
}

func TestGenerateReturnsFreshInstances(t *testing.T) {
	comp, err := New().
		Add("growth", stubFactory(growthSchema())).
		Bind("global").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p1, _, err := comp.Generate(domain.MustPath("agents", "a"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	p2, _, err := comp.Generate(domain.MustPath("agents", "b"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if p1["growth"] == p2["growth"] {
		t.Error("Generate must not reuse process instances")
	}
}

func TestBuildRejectsUnboundPort(t *testing.T) {
	_, err := New().
		Add("growth", stubFactory(growthSchema())).
		Build()
	if !errors.Is(err, domain.ErrPortNotBound) {
		t.Fatalf("err = %v, want ErrPortNotBound", err)
	}
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	_, err := New().
		Add("growth", stubFactory(growthSchema())).
		Bind("global").
		Add("growth", stubFactory(growthSchema())).
		Bind("global").
		Build()
	if !errors.Is(err, domain.ErrDuplicateProcess) {
		t.Fatalf("err = %v, want ErrDuplicateProcess", err)
	}
}

func TestNestPrefixesAndRebases(t *testing.T) {
	cell, err := New().
		Add("growth", stubFactory(growthSchema())).
		Bind("global", "boundary").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	nested := Nest(map[string]ports.Composite{"cell": cell})
	procs, topos, err := nested.Generate(domain.MustPath("agents"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := procs["cell/growth"]; !ok {
		t.Fatalf("nested process name missing, have %v", procs)
	}
	got, _ := topos["cell/growth"].Resolve("global")
	if want := domain.MustPath("agents", "cell", "boundary"); !got.Equal(want) {
		t.Errorf("nested binding = %v, want %v", got, want)
	}
}

func TestMergeDetectsCollisions(t *testing.T) {
	build := func() ports.Composite {
		c, err := New().Add("growth", stubFactory(growthSchema())).Bind("global").Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return c
	}
	merged := Merge(build(), build())
	_, _, err := merged.Generate(domain.Path{})
	if !errors.Is(err, domain.ErrDuplicateProcess) {
		t.Fatalf("err = %v, want ErrDuplicateProcess", err)
	}
}

func TestDeriveSeedVariesByPath(t *testing.T) {
	a := DeriveSeed(42, domain.MustPath("agents", "cell0"))
	b := DeriveSeed(42, domain.MustPath("agents", "cell1"))
	if a == b {
		t.Error("daughters must not share random streams")
	}
	if a != DeriveSeed(42, domain.MustPath("agents", "cell0")) {
		t.Error("seed derivation must be stable")
	}
}
