package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/microcosm/pkg/ports"
)

// EmitterFactory builds a sample sink from the target part of a sink URI.
// It receives a context for dial-time work and the URI remainder after the
// scheme ("out.jsonl" for "file:out.jsonl", "//localhost:6379" for
// "redis://localhost:6379").
type EmitterFactory func(ctx context.Context, target string) (ports.Emitter, error)

// StoreFactory builds a snapshot store from the target part of a store URI.
type StoreFactory func(ctx context.Context, target string) (ports.SnapshotStore, error)

// Registry manages the available emitter and store schemes, so sinks can
// be selected by URI at the command line or in an experiment definition.
type Registry struct {
	mu       sync.RWMutex
	emitters map[string]EmitterFactory
	stores   map[string]StoreFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		emitters: make(map[string]EmitterFactory),
		stores:   make(map[string]StoreFactory),
	}
}

// RegisterEmitter adds an emitter scheme.
// If the scheme exists, it is overwritten.
func (r *Registry) RegisterEmitter(scheme string, fn EmitterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitters[scheme] = fn
}

// RegisterStore adds a snapshot store scheme.
// If the scheme exists, it is overwritten.
func (r *Registry) RegisterStore(scheme string, fn StoreFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[scheme] = fn
}

// Emitter resolves a sink URI and builds the emitter.
// Returns an error if the scheme is not registered.
func (r *Registry) Emitter(ctx context.Context, uri string) (ports.Emitter, error) {
	scheme, target := splitURI(uri)

	r.mu.RLock()
	fn, ok := r.emitters[scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown emitter scheme %q (have %s)", scheme, strings.Join(r.EmitterSchemes(), ", "))
	}
	return fn(ctx, target)
}

// Store resolves a store URI and builds the snapshot store.
// Returns an error if the scheme is not registered.
func (r *Registry) Store(ctx context.Context, uri string) (ports.SnapshotStore, error) {
	scheme, target := splitURI(uri)

	r.mu.RLock()
	fn, ok := r.stores[scheme]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown store scheme %q (have %s)", scheme, strings.Join(r.StoreSchemes(), ", "))
	}
	return fn(ctx, target)
}

// EmitterSchemes returns the registered emitter schemes, sorted.
func (r *Registry) EmitterSchemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]string, 0, len(r.emitters))
	for s := range r.emitters {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// StoreSchemes returns the registered store schemes, sorted.
func (r *Registry) StoreSchemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]string, 0, len(r.stores))
	for s := range r.stores {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// splitURI cuts a sink URI at the first colon: "file:out.jsonl" is scheme
// "file" with target "out.jsonl"; a bare word like "console" is a scheme
// with an empty target.
func splitURI(uri string) (scheme, target string) {
	if scheme, target, ok := strings.Cut(uri, ":"); ok {
		return scheme, target
	}
	return uri, ""
}
