package dsl

import "github.com/aretw0/microcosm/pkg/composition"

// ProcessBuilder provides a fluent API for configuring one process.
type ProcessBuilder struct {
	spec       composition.ProcessSpec
	experiment *Experiment
}

// Set adds one configuration value.
func (p *ProcessBuilder) Set(key string, value any) *ProcessBuilder {
	p.spec.Config[key] = value
	return p
}

// Config merges a configuration map, overwriting existing keys.
func (p *ProcessBuilder) Config(config map[string]any) *ProcessBuilder {
	for k, v := range config {
		p.spec.Config[k] = v
	}
	return p
}

// Bind wires a port to an absolute state path ("agents/0/cell").
func (p *ProcessBuilder) Bind(port, path string) *ProcessBuilder {
	p.spec.Topology[port] = path
	return p
}

// Add continues the chain with another process on the same experiment.
func (p *ProcessBuilder) Add(name, kind string) *ProcessBuilder {
	return p.experiment.Add(name, kind)
}

// Build compiles and validates the whole definition.
func (p *ProcessBuilder) Build() (composition.Definition, error) {
	return p.experiment.Build()
}

// Spec returns the underlying process spec.
// This is primarily used by the Experiment, but exposed for advanced usage.
func (p *ProcessBuilder) Spec() composition.ProcessSpec {
	return p.spec
}
