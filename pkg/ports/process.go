package ports

import (
	"context"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Process is a simulation mechanism the scheduler advances. Implementations
// must keep Next pure in (timestep, view): private continuation state such
// as fractional elongation progress belongs in declared tree variables, not
// in mutable fields, so that snapshots capture everything and replays are
// deterministic.
type Process interface {
	// Schema declares, per port, the variables the process reads and
	// writes, with their initial values and combination metadata.
	Schema() domain.Schema

	// TimeStep is the preferred interval between invocations in simulated
	// time units. Zero marks a Deriver: it runs after every cycle's merge,
	// recomputing dependent variables from the just-updated state.
	TimeStep() float64

	// Next computes the process's contribution for one interval against a
	// read-only view projected at the start of the cycle. It must not
	// retain the view past the call.
	Next(ctx context.Context, timestep float64, view domain.View) (domain.Update, error)
}

// Composite generates a family of processes wired under a base path. The
// scheduler re-invokes it after a division to populate each daughter, so
// implementations must return fresh process instances on every call.
type Composite interface {
	Generate(base domain.Path) (map[string]Process, map[string]domain.Topology, error)
}

// CompositeFunc adapts a plain function to the Composite interface.
type CompositeFunc func(base domain.Path) (map[string]Process, map[string]domain.Topology, error)

// Generate calls f.
func (f CompositeFunc) Generate(base domain.Path) (map[string]Process, map[string]domain.Topology, error) {
	return f(base)
}
