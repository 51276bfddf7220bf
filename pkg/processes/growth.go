package processes

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/microcosm/pkg/domain"
)

// GrowthConfig configures a Growth process.
type GrowthConfig struct {
	// Rate is the exponential growth constant per time unit.
	Rate float64 `mapstructure:"rate"`

	// InitialMass seeds the mass variable on a fresh tree.
	InitialMass float64 `mapstructure:"initial_mass"`

	TimeStep float64 `mapstructure:"time_step"`
}

// Growth grows a mass variable exponentially: mass(t+dt) = mass(t)*e^(r*dt).
// The update is a set, since exponential growth does not decompose into an
// additive delta.
type Growth struct {
	cfg GrowthConfig
}

// NewGrowth validates the configuration and returns the process.
func NewGrowth(cfg GrowthConfig) (*Growth, error) {
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("growth rate must be positive, got %v", cfg.Rate)
	}
	if cfg.InitialMass < 0 {
		return nil, fmt.Errorf("negative initial mass %v", cfg.InitialMass)
	}
	if cfg.InitialMass == 0 {
		cfg.InitialMass = 1000
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	return &Growth{cfg: cfg}, nil
}

// Schema declares the mass variable: set-updated, split on division, emitted.
func (g *Growth) Schema() domain.Schema {
	return domain.Schema{
		"global": {
			"mass": domain.Variable{
				Value:       g.cfg.InitialMass,
				Updater:     domain.UpdaterSet,
				Divider:     domain.DividerSplit,
				NonNegative: true,
				Emit:        true,
			},
		},
	}
}

// TimeStep returns the configured interval.
func (g *Growth) TimeStep() float64 {
	return g.cfg.TimeStep
}

// Next computes the grown mass over the interval.
func (g *Growth) Next(_ context.Context, timestep float64, view domain.View) (domain.Update, error) {
	if timestep < 0 {
		return domain.Update{}, fmt.Errorf("negative timestep %v", timestep)
	}
	mass := view.Float("global", "mass")
	var update domain.Update
	update.Put("global", "mass", domain.Entry{Value: mass * math.Exp(g.cfg.Rate*timestep)})
	return update, nil
}
