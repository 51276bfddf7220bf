package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
)

// Loader adapts the Loam library to an experiment-definition source: a
// directory of markdown documents whose frontmatter declares the processes,
// wiring and horizon of a run, with the body as free-form notes.
type Loader struct {
	Repo *loam.TypedRepository[ExperimentMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ExperimentMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a loam repository at path and returns a loader over it.
// Strict mode keeps numerics as json.Number so large molecule counts never
// collapse into float64; read-only mode because the loader never writes.
func Open(path string) (*Loader, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ExperimentMetadata](repo)), nil
}

// Load retrieves an experiment definition by document ID. The ID may be
// given with or without its file extension.
func (l *Loader) Load(ctx context.Context, id string) (*composition.Definition, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	def, err := l.convert(trimExtension(doc.ID), doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("experiment %s: %w", id, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (l *Loader) convert(docID string, meta ExperimentMetadata, content string) (*composition.Definition, error) {
	name := meta.Name
	if name == "" {
		name = docID
	}

	description := meta.Description
	if description == "" {
		description = firstLine(content)
	}

	horizon, ok := asFloat(meta.Horizon)
	if meta.Horizon != nil && !ok {
		return nil, fmt.Errorf("horizon is not numeric: %v", meta.Horizon)
	}

	var seed int64
	if meta.Seed != nil {
		s, ok := asInt(meta.Seed)
		if !ok {
			return nil, fmt.Errorf("seed is not an integer: %v", meta.Seed)
		}
		seed = s
	}

	def := &composition.Definition{
		Name:        name,
		Description: description,
		Horizon:     horizon,
		Seed:        seed,
		Emitter:     meta.Emitter,
		Processes:   make([]composition.ProcessSpec, 0, len(meta.Processes)),
	}
	for _, p := range meta.Processes {
		def.Processes = append(def.Processes, composition.ProcessSpec{
			Name:     p.Name,
			Kind:     p.Kind,
			Config:   p.Config,
			Topology: p.Topology,
		})
	}
	return def, nil
}

// List returns the available experiment names, detecting collisions where
// two documents resolve to the same name.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := doc.Data.Name
		if name == "" {
			name = trimExtension(doc.ID)
		}
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: experiment %q is defined in both %q and %q", name, existing, doc.ID)
		}
		seen[name] = doc.ID
		names = append(names, name)
	}
	return names, nil
}

// Watch streams the IDs of changed experiment documents so a long-running
// server can reload definitions without restarting.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch n := domain.NormalizeValue(v).(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asInt(v any) (int64, bool) {
	switch n := domain.NormalizeValue(v).(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
