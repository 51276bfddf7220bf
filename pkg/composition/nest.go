package composition

import (
	"fmt"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// Nest mounts child composites under named subtrees of the base. Process
// names gain the child's segment as a prefix, so two children may reuse
// local names without colliding.
func Nest(children map[string]ports.Composite) ports.Composite {
	return ports.CompositeFunc(func(base domain.Path) (map[string]ports.Process, map[string]domain.Topology, error) {
		processes := make(map[string]ports.Process)
		topologies := make(map[string]domain.Topology)
		for segment, child := range children {
			if err := domain.ValidateSegment(segment); err != nil {
				return nil, nil, err
			}
			procs, topos, err := child.Generate(base.Child(segment))
			if err != nil {
				return nil, nil, fmt.Errorf("nested composite %q: %w", segment, err)
			}
			for name, p := range procs {
				qualified := segment + domain.PathSeparator + name
				processes[qualified] = p
				topologies[qualified] = topos[name]
			}
		}
		return processes, topologies, nil
	})
}

// Merge overlays composites at the same base. Duplicate process names are
// an error.
func Merge(composites ...ports.Composite) ports.Composite {
	return ports.CompositeFunc(func(base domain.Path) (map[string]ports.Process, map[string]domain.Topology, error) {
		processes := make(map[string]ports.Process)
		topologies := make(map[string]domain.Topology)
		for _, c := range composites {
			procs, topos, err := c.Generate(base)
			if err != nil {
				return nil, nil, err
			}
			for name, p := range procs {
				if _, exists := processes[name]; exists {
					return nil, nil, fmt.Errorf("%w: %q", domain.ErrDuplicateProcess, name)
				}
				processes[name] = p
				topologies[name] = topos[name]
			}
		}
		return processes, topologies, nil
	})
}
