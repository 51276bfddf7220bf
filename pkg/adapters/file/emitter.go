package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Emitter implements ports.Emitter by appending one JSON record per sample
// to a file, so a run's timeseries survives the process and pipes into
// plotting tools. Unlike the console emitter it owns its writer and closes
// it when the run ends.
type Emitter struct {
	f   *os.File
	enc *json.Encoder
}

// NewEmitter opens (or creates) the file at path for appending.
func NewEmitter(path string) (*Emitter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating sample directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening sample file: %w", err)
	}
	return &Emitter{f: f, enc: json.NewEncoder(f)}, nil
}

// Emit appends the sample as one JSON line.
func (e *Emitter) Emit(ctx context.Context, sample domain.Sample) error {
	return e.enc.Encode(sample)
}

// Close flushes and closes the file.
func (e *Emitter) Close() error {
	if err := e.f.Sync(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}
