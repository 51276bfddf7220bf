package middleware_test

import (
	"context"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (s *MockStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	s.data[snapshot.ID] = snapshot
	return nil
}

func (s *MockStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	snapshot, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (s *MockStore) Delete(ctx context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*MockStore)(nil)
