package ports

import (
	"context"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Experiment defines the interface for a running simulation exposed to adapters
// (e.g., HTTP, MCP) that observe and drive it from the outside.
type Experiment interface {
	// Now returns the current simulated time.
	Now() float64

	// Cycles returns the number of scheduler cycles executed so far.
	Cycles() uint64

	// ProcessNames returns the names of all registered processes, sorted.
	ProcessNames() []string

	// Derivers returns the names of the registered derivers, sorted.
	Derivers() []string

	// Agents returns the state paths of all live agents, sorted.
	Agents() []string

	// Topologies returns the port wiring of every process as path strings.
	Topologies() map[string]map[string]string

	// Snapshot captures the full simulation state under the given id.
	Snapshot(id string) *domain.Snapshot

	// Step advances the simulation by one scheduler cycle.
	Step(ctx context.Context) error

	// Run advances the simulation until simulated time reaches horizon.
	Run(ctx context.Context, horizon float64) error
}
