package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam
// repository in it, with strict mode on so numerics decode as json.Number
// exactly like production repositories. It returns the absolute path to
// the temp dir and the initialized repository.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, append([]loam.Option{loam.WithStrict(true)}, opts...)...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SaveDocs writes the given documents into the repository, failing the
// test on any error.
func SaveDocs(t *testing.T, repo core.Repository, docs ...core.Document) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc), "Failed to save %s", doc.ID)
	}
}
