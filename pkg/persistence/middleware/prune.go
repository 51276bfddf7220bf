package middleware

import (
	"context"
	"regexp"
	"sort"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

type pruneMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPruneMiddleware creates a middleware that drops state paths matching
// the patterns from saved checkpoints. Patterns match against the
// slash-joined path of each leaf or subtree ("cell/derived/volume").
//
// Pruning suits derived and emit-only values: they recompute on the first
// cycle after a restore, so carrying them only inflates the checkpoint.
func NewPruneMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &pruneMiddleware{next: next, patterns: patterns}
	}
}

func (m *pruneMiddleware) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	// Work on a copy so the in-memory snapshot the engine handed over
	// stays intact.
	pruned := *snapshot
	pruned.State = pruneMap(snapshot.State, "", m.patterns)
	return m.next.Save(ctx, &pruned)
}

func (m *pruneMiddleware) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, id)
}

func (m *pruneMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *pruneMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// pruneMap deep-copies m, dropping every entry whose joined path matches
// a pattern. Matching a subtree drops everything under it.
func pruneMap(m map[string]any, prefix string, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + domain.PathSeparator + k
		}
		if matchesAny(path, patterns) {
			continue
		}
		if subMap, ok := v.(map[string]any); ok {
			out[k] = pruneMap(subMap, path, patterns)
		} else {
			out[k] = v
		}
	}
	return out
}

func matchesAny(path string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

// PathsOf lists the leaf paths of a nested state map, sorted. Intended
// for tests and debugging of prune patterns.
func PathsOf(state map[string]any) []string {
	var paths []string
	var walk func(m map[string]any, prefix string)
	walk = func(m map[string]any, prefix string) {
		for k, v := range m {
			path := k
			if prefix != "" {
				path = prefix + domain.PathSeparator + k
			}
			if subMap, ok := v.(map[string]any); ok {
				walk(subMap, path)
			} else {
				paths = append(paths, path)
			}
		}
	}
	walk(state, "")
	sort.Strings(paths)
	return paths
}
