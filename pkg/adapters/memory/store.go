package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Snapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	// Deep copy to ensure isolation, similar to serialization.
	copied := *snapshot
	copied.State = domain.CloneValue(snapshot.State).(map[string]any)
	copied.Topology = cloneTopology(snapshot.Topology)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snapshot.ID] = &copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	// Copy on read so the caller can't mutate store state through the pointer.
	ret := *snapshot
	ret.State = domain.CloneValue(snapshot.State).(map[string]any)
	ret.Topology = cloneTopology(snapshot.Topology)
	return &ret, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored snapshot IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneTopology(topo map[string]map[string]string) map[string]map[string]string {
	if topo == nil {
		return nil
	}
	out := make(map[string]map[string]string, len(topo))
	for proc, ports := range topo {
		inner := make(map[string]string, len(ports))
		for port, path := range ports {
			inner[port] = path
		}
		out[proc] = inner
	}
	return out
}
