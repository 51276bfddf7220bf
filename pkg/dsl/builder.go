package dsl

import (
	"github.com/aretw0/microcosm/pkg/composition"
)

// Experiment manages the definition construction.
type Experiment struct {
	name        string
	description string
	horizon     float64
	seed        int64
	emitter     string

	order []string
	procs map[string]*ProcessBuilder
}

// New creates a new experiment builder.
func New(name string) *Experiment {
	return &Experiment{
		name:  name,
		procs: make(map[string]*ProcessBuilder),
	}
}

// Describe sets the experiment description (markdown).
func (e *Experiment) Describe(description string) *Experiment {
	e.description = description
	return e
}

// Horizon sets the simulated time the experiment runs to.
func (e *Experiment) Horizon(t float64) *Experiment {
	e.horizon = t
	return e
}

// Seed sets the deterministic seed for stochastic processes.
func (e *Experiment) Seed(seed int64) *Experiment {
	e.seed = seed
	return e
}

// Emit selects the sample sink by URI ("console", "file:out.jsonl").
func (e *Experiment) Emit(uri string) *Experiment {
	e.emitter = uri
	return e
}

// Add creates a new process of the given catalog kind.
// If the process already exists, it returns the existing builder.
func (e *Experiment) Add(name, kind string) *ProcessBuilder {
	if pb, ok := e.procs[name]; ok {
		return pb
	}
	pb := &ProcessBuilder{
		spec: composition.ProcessSpec{
			Name:     name,
			Kind:     kind,
			Config:   make(map[string]any),
			Topology: make(map[string]string),
		},
		experiment: e,
	}
	e.order = append(e.order, name)
	e.procs[name] = pb
	return pb
}

// Build compiles and validates the definition.
func (e *Experiment) Build() (composition.Definition, error) {
	def := composition.Definition{
		Name:        e.name,
		Description: e.description,
		Horizon:     e.horizon,
		Seed:        e.seed,
		Emitter:     e.emitter,
		Processes:   make([]composition.ProcessSpec, 0, len(e.order)),
	}
	for _, name := range e.order {
		def.Processes = append(def.Processes, e.procs[name].spec)
	}
	if err := def.Validate(); err != nil {
		return composition.Definition{}, err
	}
	return def, nil
}
