package processes

import (
	"context"
	"fmt"

	"github.com/aretw0/microcosm/pkg/domain"
)

// ConcentrationsConfig configures a Concentrations deriver.
type ConcentrationsConfig struct {
	// Molecules lists the count variables to convert.
	Molecules []string `mapstructure:"molecules"`

	// Factor scales count/volume into the reported unit, 1 by default.
	Factor float64 `mapstructure:"factor"`
}

// Concentrations derives molecule concentrations from counts and a volume.
// It has a zero time step, so the scheduler runs it after every cycle rather
// than on its own clock.
type Concentrations struct {
	cfg ConcentrationsConfig
}

// NewConcentrations validates the configuration and returns the deriver.
func NewConcentrations(cfg ConcentrationsConfig) (*Concentrations, error) {
	if len(cfg.Molecules) == 0 {
		return nil, fmt.Errorf("concentrations: no molecules configured")
	}
	seen := make(map[string]bool, len(cfg.Molecules))
	for _, name := range cfg.Molecules {
		if err := domain.ValidateSegment(name); err != nil {
			return nil, fmt.Errorf("concentrations molecule: %w", err)
		}
		if seen[name] {
			return nil, fmt.Errorf("concentrations: duplicate molecule %q", name)
		}
		seen[name] = true
	}
	if cfg.Factor < 0 {
		return nil, fmt.Errorf("concentrations: negative factor %v", cfg.Factor)
	}
	if cfg.Factor == 0 {
		cfg.Factor = 1
	}
	return &Concentrations{cfg: cfg}, nil
}

// Schema declares count inputs, the volume input and set-updated outputs.
func (c *Concentrations) Schema() domain.Schema {
	counts := make(map[string]domain.Variable, len(c.cfg.Molecules))
	concs := make(map[string]domain.Variable, len(c.cfg.Molecules))
	for _, name := range c.cfg.Molecules {
		counts[name] = domain.Variable{}
		concs[name] = domain.Variable{
			Value:   float64(0),
			Updater: domain.UpdaterSet,
			Divider: domain.DividerSet,
			Emit:    true,
		}
	}
	return domain.Schema{
		"counts":         counts,
		"environment":    {"volume": {}},
		"concentrations": concs,
	}
}

// TimeStep returns zero: Concentrations is a deriver.
func (c *Concentrations) TimeStep() float64 {
	return 0
}

// Next recomputes every concentration from the current counts and volume.
func (c *Concentrations) Next(_ context.Context, _ float64, view domain.View) (domain.Update, error) {
	volume := view.Float("environment", "volume")
	if volume <= 0 {
		return domain.Update{}, fmt.Errorf("concentrations: non-positive volume %v", volume)
	}
	var update domain.Update
	for _, name := range c.cfg.Molecules {
		count := view.Float("counts", name)
		update.Put("concentrations", name, domain.Entry{Value: c.cfg.Factor * count / volume})
	}
	return update, nil
}
