package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm/pkg/domain"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a
// SnapshotStore implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	id := "contract-test-snapshot-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			ID:   id,
			Time: 12.5,
			State: map[string]any{
				"agents": map[string]any{
					"cell": map[string]any{
						"mass": 1000.5,
						"atp":  int64(42),
					},
				},
			},
			Topology: map[string]map[string]string{
				"growth": {"global": "agents/cell"},
			},
			SavedAt: time.Now().UTC(),
		}

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Time, loaded.Time)
		assert.Equal(t, "agents/cell", loaded.Topology["growth"]["global"])

		cell, ok := loaded.State["agents"].(map[string]any)["cell"].(map[string]any)
		require.True(t, ok, "nested state shape must survive persistence")
		assert.Equal(t, 1000.5, domain.NormalizeValue(cell["mass"]))
		// Integer counts must stay exact through persistence.
		assert.Equal(t, int64(42), domain.NormalizeValue(cell["atp"]))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, &domain.Snapshot{ID: id, Time: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, id)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, &domain.Snapshot{ID: id1, Time: 1})
		_ = store.Save(ctx, &domain.Snapshot{ID: id2, Time: 2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunEmitterContract verifies that an Emitter implementation accepts a
// stream of samples and a final Close.
func RunEmitterContract(t *testing.T, emitter Emitter) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sample := domain.Sample{
			Time: float64(i),
			Values: map[string]any{
				"agents/cell/mass": 1000.0 + float64(i),
			},
		}
		require.NoError(t, emitter.Emit(ctx, sample), "Emit should not return error")
	}

	require.NoError(t, emitter.Close(), "Close should not return error")
}
