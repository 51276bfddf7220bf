package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Store implements ports.SnapshotStore using the local filesystem.
// It stores snapshots as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".microcosm/snapshots".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".microcosm", "snapshots")
	}
	return &Store{BasePath: basePath}
}

// Save persists the snapshot to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it
// to the destination so a crash never leaves a partial snapshot behind.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if err := validateID(snapshot.ID); err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, snapshot.ID+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+snapshot.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file, nor rename over an existing one.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing snapshot for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the snapshot from a JSON file. Numbers decode through
// json.Number so integer counts come back as int64, not float64.
func (s *Store) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	filePath := filepath.Join(s.BasePath, id+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	return decodeSnapshot(data)
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.BasePath, id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns all stored snapshot IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && filepath.Ext(name) == ".json" && !strings.HasPrefix(name, "tmp-") {
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}
	return ids, nil
}

func decodeSnapshot(data []byte) (*domain.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var snapshot domain.Snapshot
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snapshot.State != nil {
		snapshot.State = domain.NormalizeValue(snapshot.State).(map[string]any)
	}
	return &snapshot, nil
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("snapshot ID cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("snapshot ID %q cannot be used as a file name", id)
	}
	return nil
}
