package composition

import (
	"fmt"
	"sort"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/schema"
)

// Constructor builds a process from a free-form configuration map.
// Implementations should decode through Decode so unknown keys fail fast.
type Constructor func(config map[string]any) (ports.Process, error)

type registration struct {
	ctor   Constructor
	config schema.Schema
}

// RegisterOption configures one catalog registration.
type RegisterOption func(*registration)

// WithConfigSchema attaches a config schema checked before the constructor
// runs, so a typo in an experiment file fails with a field-level message.
func WithConfigSchema(s schema.Schema) RegisterOption {
	return func(r *registration) {
		r.config = s
	}
}

// Catalog maps definition kinds to process constructors. It lives at the
// configuration boundary: inside the engine processes are concrete values,
// never looked up by name.
type Catalog struct {
	kinds map[string]registration
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{kinds: make(map[string]registration)}
}

// Register adds a constructor for a kind. Registering the same kind twice
// is an error.
func (c *Catalog) Register(kind string, ctor Constructor, opts ...RegisterOption) error {
	if kind == "" {
		return fmt.Errorf("catalog kind must not be empty")
	}
	if _, exists := c.kinds[kind]; exists {
		return fmt.Errorf("catalog kind %q registered twice", kind)
	}
	reg := registration{ctor: ctor}
	for _, opt := range opts {
		opt(&reg)
	}
	c.kinds[kind] = reg
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (c *Catalog) Kinds() []string {
	out := make([]string, 0, len(c.kinds))
	for k := range c.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ConfigSchema returns the config schema registered for a kind, or nil if
// the kind is unknown or was registered without one.
func (c *Catalog) ConfigSchema(kind string) schema.Schema {
	return c.kinds[kind].config
}

// Construct builds one process and its topology from a spec: the config is
// checked against the kind's schema, the constructor runs, and every port
// the schema declares must be bound to a parseable path.
func (c *Catalog) Construct(spec ProcessSpec) (ports.Process, domain.Topology, error) {
	reg, ok := c.kinds[spec.Kind]
	if !ok {
		return nil, nil, fmt.Errorf("unknown process kind %q (have %v)", spec.Kind, c.Kinds())
	}
	if reg.config != nil {
		if err := schema.Validate(reg.config, spec.Config); err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
	}
	proc, err := reg.ctor(spec.Config)
	if err != nil {
		return nil, nil, err
	}
	topo := make(domain.Topology, len(spec.Topology))
	for port, raw := range spec.Topology {
		path, err := domain.ParsePath(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("port %q: %w", port, err)
		}
		topo[port] = path
	}
	for _, port := range proc.Schema().Ports() {
		if _, ok := topo[port]; !ok {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrPortNotBound, port)
		}
	}
	return proc, topo, nil
}

// Materialize turns a validated definition into live processes and their
// topologies, ready to hand to an experiment.
func (c *Catalog) Materialize(def Definition) (map[string]ports.Process, map[string]domain.Topology, error) {
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}
	processes := make(map[string]ports.Process, len(def.Processes))
	topologies := make(map[string]domain.Topology, len(def.Processes))
	for _, spec := range def.Processes {
		proc, topo, err := c.Construct(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("definition %q: process %q: %w", def.Name, spec.Name, err)
		}
		processes[spec.Name] = proc
		topologies[spec.Name] = topo
	}
	return processes, topologies, nil
}
