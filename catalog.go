package microcosm

import (
	"fmt"

	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/kinetics"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/processes"
	"github.com/aretw0/microcosm/pkg/schema"
)

// DefaultCatalog returns a catalog with every built-in process kind
// registered: growth, division, concentrations, timeline, expression and
// reactions. Applications extend it by registering their own kinds on the
// returned catalog, or start from composition.NewCatalog for a clean one.
func DefaultCatalog() *composition.Catalog {
	cat := composition.NewCatalog()

	mustRegister(cat, "growth", func(config map[string]any) (ports.Process, error) {
		var cfg processes.GrowthConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return processes.NewGrowth(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"rate":         schema.Float(),
		"initial_mass": schema.Optional(schema.Float()),
		"time_step":    schema.Optional(schema.Float()),
	}))

	mustRegister(cat, "division", func(config map[string]any) (ports.Process, error) {
		var cfg processes.DivisionConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return processes.NewDivision(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"threshold": schema.Float(),
		"variable":  schema.Optional(schema.String()),
		"time_step": schema.Optional(schema.Float()),
	}))

	mustRegister(cat, "concentrations", func(config map[string]any) (ports.Process, error) {
		var cfg processes.ConcentrationsConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return processes.NewConcentrations(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"molecules": schema.Slice(schema.String()),
		"factor":    schema.Optional(schema.Float()),
	}))

	mustRegister(cat, "timeline", func(config map[string]any) (ports.Process, error) {
		var cfg processes.TimelineConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return processes.NewTimeline(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"entries":   schema.Slice(timedEntry("entry")),
		"time_step": schema.Optional(schema.Float()),
	}))

	mustRegister(cat, "expression", func(config map[string]any) (ports.Process, error) {
		var cfg kinetics.ExpressionConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return kinetics.NewExpression(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"templates":       schema.Slice(namedTemplate()),
		"elongation_rate": schema.Float(),
		"polymerase":      schema.Optional(schema.String()),
		"time_step":       schema.Optional(schema.Float()),
		"seed":            schema.Optional(schema.Int()),
	}))

	mustRegister(cat, "reactions", func(config map[string]any) (ports.Process, error) {
		var cfg processes.ReactionsConfig
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return processes.NewReactions(cfg)
	}, composition.WithConfigSchema(schema.Schema{
		"reactions": schema.Slice(schema.String()),
		"counts":    schema.Optional(schema.Map(schema.Int())),
		"time_step": schema.Optional(schema.Float()),
		"seed":      schema.Optional(schema.Int()),
	}))

	return cat
}

// timedEntry accepts a map carrying a "time" key. Field types inside the
// entry are checked by the constructor's decode, not here.
func timedEntry(name string) schema.Type {
	return schema.Custom(name, func(v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a map, got %T", v)
		}
		if _, ok := m["time"]; !ok {
			return fmt.Errorf("missing time")
		}
		return nil
	})
}

func namedTemplate() schema.Type {
	return schema.Custom("template", func(v any) error {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a map, got %T", v)
		}
		if _, ok := m["name"]; !ok {
			return fmt.Errorf("missing name")
		}
		return nil
	})
}

// mustRegister panics on a duplicate kind. DefaultCatalog registers a
// fixed set, so a failure here is a programming error.
func mustRegister(cat *composition.Catalog, kind string, ctor composition.Constructor, opts ...composition.RegisterOption) {
	if err := cat.Register(kind, ctor, opts...); err != nil {
		panic(err)
	}
}
