package composition

import (
	"fmt"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Definition is the declarative form of an experiment, as loaded from a
// YAML file or a markdown document's frontmatter. It names the processes
// to construct, their configurations, and their wiring; the Catalog turns
// it into live instances.
type Definition struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Description string        `yaml:"description,omitempty" mapstructure:"description"`
	Horizon     float64       `yaml:"horizon" mapstructure:"horizon"`
	Seed        int64         `yaml:"seed,omitempty" mapstructure:"seed"`
	Emitter     string        `yaml:"emitter,omitempty" mapstructure:"emitter"`
	Processes   []ProcessSpec `yaml:"processes" mapstructure:"processes"`
}

// ProcessSpec declares one process: the catalog kind to construct, its
// configuration, and the absolute paths its ports bind to.
type ProcessSpec struct {
	Name     string            `yaml:"name" mapstructure:"name"`
	Kind     string            `yaml:"kind" mapstructure:"kind"`
	Config   map[string]any    `yaml:"config,omitempty" mapstructure:"config"`
	Topology map[string]string `yaml:"topology" mapstructure:"topology"`
}

// Validate checks the definition for structural problems before any
// process is constructed.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("definition needs a name")
	}
	if d.Horizon <= 0 {
		return fmt.Errorf("definition %q: horizon must be positive, got %v", d.Name, d.Horizon)
	}
	if len(d.Processes) == 0 {
		return fmt.Errorf("definition %q: no processes", d.Name)
	}
	seen := make(map[string]bool, len(d.Processes))
	for _, spec := range d.Processes {
		if spec.Name == "" {
			return fmt.Errorf("definition %q: process without a name", d.Name)
		}
		if spec.Kind == "" {
			return fmt.Errorf("definition %q: process %q without a kind", d.Name, spec.Name)
		}
		if seen[spec.Name] {
			return fmt.Errorf("definition %q: %w: %q", d.Name, domain.ErrDuplicateProcess, spec.Name)
		}
		seen[spec.Name] = true
		for port, raw := range spec.Topology {
			if _, err := domain.ParsePath(raw); err != nil {
				return fmt.Errorf("definition %q: process %q port %q: %w", d.Name, spec.Name, port, err)
			}
		}
	}
	return nil
}
