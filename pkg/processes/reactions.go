package processes

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/aretw0/microcosm/internal/compiler"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/kinetics"
)

// ReactionsConfig configures a Reactions process from chemical equations.
type ReactionsConfig struct {
	// Reactions holds one equation per entry, "A + B -> AB @ 0.5" style.
	// Species named here become the variables of the molecules port.
	Reactions []string `mapstructure:"reactions"`

	// Counts seeds initial copy numbers. Species not listed start at zero.
	Counts map[string]int64 `mapstructure:"counts"`

	TimeStep float64 `mapstructure:"time_step"`
	Seed     int64   `mapstructure:"seed"`
}

// Reactions simulates a mass-action reaction network with the Gillespie
// direct method. Each invocation reads the current copy numbers, evolves
// them over the timestep, and hands back the net change per species, so
// other processes may write the same counts concurrently.
type Reactions struct {
	cfg     ReactionsConfig
	network *compiler.Network
	system  *kinetics.System
	rng     *rand.Rand
}

// NewReactions parses the equations and validates the configuration.
func NewReactions(cfg ReactionsConfig) (*Reactions, error) {
	network, err := compiler.Parse(cfg.Reactions)
	if err != nil {
		return nil, err
	}
	system, err := network.System()
	if err != nil {
		return nil, err
	}
	for name, count := range cfg.Counts {
		if _, ok := network.Index(name); !ok {
			return nil, fmt.Errorf("initial count for unknown species %q (have %v)", name, network.Species)
		}
		if count < 0 {
			return nil, fmt.Errorf("negative initial count %d for species %q", count, name)
		}
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	return &Reactions{
		cfg:     cfg,
		network: network,
		system:  system,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Schema declares one counting variable per species on the molecules port.
func (r *Reactions) Schema() domain.Schema {
	molecules := make(map[string]domain.Variable, len(r.network.Species))
	for _, s := range r.network.Species {
		molecules[s] = domain.Variable{
			Value:       r.cfg.Counts[s],
			Divider:     domain.DividerSplit,
			NonNegative: true,
			Emit:        true,
		}
	}
	return domain.Schema{"molecules": molecules}
}

// TimeStep returns the configured interval.
func (r *Reactions) TimeStep() float64 {
	return r.cfg.TimeStep
}

// Next evolves the network over the interval and reports per-species deltas.
func (r *Reactions) Next(_ context.Context, timestep float64, view domain.View) (domain.Update, error) {
	if timestep <= 0 {
		return domain.Update{}, fmt.Errorf("reactions need a positive timestep, got %v", timestep)
	}

	counts := make([]int64, len(r.network.Species))
	for i, s := range r.network.Species {
		counts[i] = view.Int("molecules", s)
	}

	res, err := r.system.Evolve(r.rng, timestep, counts)
	if err != nil {
		return domain.Update{}, fmt.Errorf("evolving network: %w", err)
	}

	var update domain.Update
	for i, s := range r.network.Species {
		if delta := res.Counts[i] - counts[i]; delta != 0 {
			update.Put("molecules", s, domain.Entry{Value: delta})
		}
	}
	return update, nil
}
