package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm/pkg/adapters/file"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

var _ ports.SnapshotStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSnapshotStoreContract(t, store)
}

func TestFileStore_PreservesIntegerCounts(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	snap := &domain.Snapshot{
		ID:   "counts",
		Time: 2,
		State: map[string]any{
			"cell": map[string]any{
				// Large enough that float64 round-tripping would lose precision.
				"atp":  int64(9007199254740995),
				"mass": 1234.5,
			},
		},
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx, "counts")
	require.NoError(t, err)
	cell := loaded.State["cell"].(map[string]any)
	assert.Equal(t, int64(9007199254740995), cell["atp"])
	assert.Equal(t, 1234.5, cell["mass"])
}

func TestFileStore_WritesAreAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, store.Save(ctx, &domain.Snapshot{ID: "run", Time: 1}))
	require.NoError(t, store.Save(ctx, &domain.Snapshot{ID: "run", Time: 2}))

	// Overwrite leaves exactly one file and no temp droppings behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run.json", entries[0].Name())

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Time)
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, &domain.Snapshot{ID: id}), "id %q", id)
	}
}

func TestFileStore_ListSkipsForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, store.Save(ctx, &domain.Snapshot{ID: "a", Time: 1}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-a-123.json"), []byte("{"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}
