package composition

import (
	"fmt"
	"hash/fnv"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// Factory constructs one process instance for the agent rooted at base.
// Factories must return a fresh instance on every call; stochastic
// processes derive per-agent seeds from base (see DeriveSeed).
type Factory func(base domain.Path) (ports.Process, error)

// Static wraps an existing process instance as a Factory. Only safe for
// processes that are never regenerated, i.e. outside dividing agents.
func Static(p ports.Process) Factory {
	return func(domain.Path) (ports.Process, error) {
		return p, nil
	}
}

// DeriveSeed mixes a base seed with an agent path, so every daughter runs
// its own reproducible random stream.
func DeriveSeed(seed int64, base domain.Path) int64 {
	h := fnv.New64a()
	h.Write([]byte(base.String()))
	return seed ^ int64(h.Sum64())
}

type entry struct {
	name     string
	factory  Factory
	relative map[string]domain.Path
	absolute map[string]domain.Path
}

// Builder manages composite construction.
type Builder struct {
	entries []*entry
	seen    map[string]bool
	err     error
}

// New creates a new composite builder.
func New() *Builder {
	return &Builder{seen: make(map[string]bool)}
}

// Add registers a process factory under a unique name and returns a
// ProcessBuilder for wiring its ports.
func (b *Builder) Add(name string, factory Factory) *ProcessBuilder {
	e := &entry{
		name:     name,
		factory:  factory,
		relative: make(map[string]domain.Path),
		absolute: make(map[string]domain.Path),
	}
	if err := domain.ValidateSegment(name); err != nil && b.err == nil {
		b.err = fmt.Errorf("process %q: %w", name, err)
	}
	if b.seen[name] && b.err == nil {
		b.err = fmt.Errorf("%w: %q", domain.ErrDuplicateProcess, name)
	}
	b.seen[name] = true
	b.entries = append(b.entries, e)
	return &ProcessBuilder{entry: e, builder: b}
}

// Build validates the wiring and returns the composite. Validation
// instantiates each process once against the root to check that every
// schema port is bound and every variable name is path-safe.
func (b *Builder) Build() (ports.Composite, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := &composite{entries: b.entries}
	if _, _, err := c.Generate(domain.Path{}); err != nil {
		return nil, err
	}
	return c, nil
}

// ProcessBuilder provides a fluent API for wiring one process's ports.
type ProcessBuilder struct {
	entry   *entry
	builder *Builder
}

// Bind maps a port to a path relative to the composite's base, so the
// wiring moves with the agent on division.
func (p *ProcessBuilder) Bind(port string, segments ...string) *ProcessBuilder {
	path, err := domain.NewPath(segments...)
	if err != nil {
		p.fail(port, err)
		return p
	}
	p.entry.relative[port] = path
	return p
}

// BindAbsolute maps a port to a fixed tree path regardless of base, for
// shared state such as the environment outside the agent.
func (p *ProcessBuilder) BindAbsolute(port string, path domain.Path) *ProcessBuilder {
	p.entry.absolute[port] = path.Clone()
	return p
}

// Add continues registration on the parent builder.
func (p *ProcessBuilder) Add(name string, factory Factory) *ProcessBuilder {
	return p.builder.Add(name, factory)
}

// Build finishes the parent builder.
func (p *ProcessBuilder) Build() (ports.Composite, error) {
	return p.builder.Build()
}

func (p *ProcessBuilder) fail(port string, err error) {
	if p.builder.err == nil {
		p.builder.err = fmt.Errorf("process %q port %q: %w", p.entry.name, port, err)
	}
}

type composite struct {
	entries []*entry
}

// Generate instantiates every registered process wired under base.
func (c *composite) Generate(base domain.Path) (map[string]ports.Process, map[string]domain.Topology, error) {
	processes := make(map[string]ports.Process, len(c.entries))
	topologies := make(map[string]domain.Topology, len(c.entries))
	for _, e := range c.entries {
		proc, err := e.factory(base)
		if err != nil {
			return nil, nil, fmt.Errorf("generating process %q: %w", e.name, err)
		}
		schema := proc.Schema()
		if err := schema.Validate(); err != nil {
			return nil, nil, fmt.Errorf("process %q schema: %w", e.name, err)
		}
		topo := make(domain.Topology, len(e.relative)+len(e.absolute))
		for port, rel := range e.relative {
			topo[port] = base.Join(rel)
		}
		for port, abs := range e.absolute {
			topo[port] = abs.Clone()
		}
		for _, port := range schema.Ports() {
			if _, ok := topo[port]; !ok {
				return nil, nil, fmt.Errorf("process %q: %w: %q", e.name, domain.ErrPortNotBound, port)
			}
		}
		processes[e.name] = proc
		topologies[e.name] = topo
	}
	return processes, topologies, nil
}
