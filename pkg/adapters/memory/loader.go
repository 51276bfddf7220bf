package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/microcosm/pkg/adapters/file"
	"github.com/aretw0/microcosm/pkg/composition"
)

// Loader serves experiment definitions from an in-memory map. It mirrors
// the loam adapter's Load/List surface so tests and embedded hosts can
// feed the same factories without touching the filesystem.
type Loader struct {
	defs map[string][]byte
}

// NewLoader creates a loader over raw YAML definition documents keyed by
// name. Documents are decoded lazily, so a malformed entry only fails the
// Load that asks for it.
func NewLoader(docs map[string]string) *Loader {
	defs := make(map[string][]byte, len(docs))
	for name, doc := range docs {
		defs[name] = []byte(doc)
	}
	return &Loader{defs: defs}
}

// NewFromDefinitions creates a loader from constructed definitions, for
// tests that build experiments in code. Definitions are serialized on the
// way in, so every Load round-trips through the same strict decoder the
// file adapter uses.
func NewFromDefinitions(defs ...*composition.Definition) (*Loader, error) {
	docs := make(map[string][]byte, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			return nil, fmt.Errorf("definition missing a name")
		}
		raw, err := yaml.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("marshal definition %q: %w", def.Name, err)
		}
		docs[def.Name] = raw
	}
	return &Loader{defs: docs}, nil
}

// Load decodes and validates the definition stored under id. A nameless
// document inherits its key, matching how the file adapter defaults the
// name from the file base.
func (l *Loader) Load(ctx context.Context, id string) (*composition.Definition, error) {
	raw, ok := l.defs[id]
	if !ok {
		return nil, fmt.Errorf("definition not found: %s (have %s)", id, strings.Join(l.names(), ", "))
	}
	def, err := file.DecodeDefinition(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", id, err)
	}
	if def.Name == "" {
		def.Name = id
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// List returns the stored definition names, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	return l.names(), nil
}

func (l *Loader) names() []string {
	names := make([]string, 0, len(l.defs))
	for name := range l.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
