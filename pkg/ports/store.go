package ports

import (
	"context"

	"github.com/aretw0/microcosm/pkg/domain"
)

// SnapshotStore defines the interface for persisting experiment snapshots.
// This allows for durable execution, enabling "Stop & Resume" workflows.
type SnapshotStore interface {
	// Save persists the snapshot under its ID, overwriting any previous
	// snapshot with the same ID.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given ID.
	// Returns domain.ErrSnapshotNotFound if the snapshot does not exist.
	Load(ctx context.Context, id string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given ID.
	Delete(ctx context.Context, id string) error

	// List returns the stored snapshot IDs.
	List(ctx context.Context) ([]string, error)
}
