package kinetics

import (
	"fmt"
	"math/rand"
)

// Reaction is one channel of a stochastic reaction system. Stoichiometry
// holds one entry per species: negative values consume, positive values
// produce. Propensity follows mass action with falling factorials, so a
// reaction consuming two of a species with count n contributes n*(n-1).
type Reaction struct {
	Name          string
	Stoichiometry []int64
	Rate          float64
}

// System is a continuous-time Markov chain over discrete molecular counts,
// evolved with the Gillespie direct method.
type System struct {
	species   int
	reactions []Reaction
}

// NewSystem validates the reaction set against the species count.
func NewSystem(species int, reactions []Reaction) (*System, error) {
	if species <= 0 {
		return nil, fmt.Errorf("system needs at least one species, got %d", species)
	}
	if len(reactions) == 0 {
		return nil, fmt.Errorf("system needs at least one reaction")
	}
	for i, r := range reactions {
		if len(r.Stoichiometry) != species {
			return nil, fmt.Errorf("reaction %d (%s): stoichiometry has %d species, want %d",
				i, r.Name, len(r.Stoichiometry), species)
		}
		if r.Rate < 0 {
			return nil, fmt.Errorf("reaction %d (%s): negative rate %v", i, r.Name, r.Rate)
		}
	}
	return &System{species: species, reactions: reactions}, nil
}

// Event records one reaction firing at a point inside the interval.
type Event struct {
	Time     float64
	Reaction int
}

// Result is the outcome of evolving a system over one interval.
type Result struct {
	// Counts are the final species counts. The input slice is not modified.
	Counts []int64
	// Events lists every firing in time order.
	Events []Event
}

// Evolve advances the system over the interval from the given counts,
// drawing all randomness from rng. With a fixed seed the event sequence
// is fully reproducible.
func (s *System) Evolve(rng *rand.Rand, interval float64, counts []int64) (Result, error) {
	if len(counts) != s.species {
		return Result{}, fmt.Errorf("counts has %d species, want %d", len(counts), s.species)
	}
	if interval < 0 {
		return Result{}, fmt.Errorf("negative interval %v", interval)
	}
	state := make([]int64, len(counts))
	copy(state, counts)
	for i, c := range state {
		if c < 0 {
			return Result{}, fmt.Errorf("species %d has negative count %d", i, c)
		}
	}

	res := Result{Counts: state}
	propensities := make([]float64, len(s.reactions))
	now := 0.0

	for {
		total := 0.0
		for i, r := range s.reactions {
			propensities[i] = s.propensity(r, state)
			total += propensities[i]
		}
		if total <= 0 {
			break
		}

		now += rng.ExpFloat64() / total
		if now >= interval {
			break
		}

		target := rng.Float64() * total
		chosen := len(s.reactions) - 1
		acc := 0.0
		for i, p := range propensities {
			acc += p
			if target < acc {
				chosen = i
				break
			}
		}

		for i, delta := range s.reactions[chosen].Stoichiometry {
			state[i] += delta
		}
		res.Events = append(res.Events, Event{Time: now, Reaction: chosen})
	}

	return res, nil
}

// propensity is the mass-action firing rate of one reaction at the current
// counts: the rate constant times the falling factorial of every consumed
// species. A reaction short of reactants has propensity zero.
func (s *System) propensity(r Reaction, state []int64) float64 {
	a := r.Rate
	for i, delta := range r.Stoichiometry {
		if delta >= 0 {
			continue
		}
		need := -delta
		if state[i] < need {
			return 0
		}
		for k := int64(0); k < need; k++ {
			a *= float64(state[i] - k)
		}
	}
	return a
}
