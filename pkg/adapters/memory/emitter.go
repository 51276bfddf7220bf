package memory

import (
	"context"
	"sync"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Emitter implements ports.Emitter by keeping every sample in memory.
// It backs in-process timeseries access after a run and is the default
// emitter for experiments that don't stream anywhere else.
// Safe for concurrent use.
type Emitter struct {
	samples []domain.Sample
	mu      sync.RWMutex
}

// NewEmitter creates a new in-memory emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit appends a deep copy of the sample.
func (e *Emitter) Emit(ctx context.Context, sample domain.Sample) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, sample.Clone())
	return nil
}

// Close is a no-op; the captured series stays readable after Close.
func (e *Emitter) Close() error {
	return nil
}

// Samples returns a copy of everything emitted so far, in emission order.
func (e *Emitter) Samples() []domain.Sample {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Sample, len(e.samples))
	for i, s := range e.samples {
		out[i] = s.Clone()
	}
	return out
}

// Series pivots the captured samples into one column per emitted variable,
// plus a "time" column. Variables absent from a cycle get a nil entry so
// every column has one row per sample.
func (e *Emitter) Series() map[string][]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	columns := map[string][]any{"time": nil}
	for _, s := range e.samples {
		for path := range s.Values {
			if _, ok := columns[path]; !ok {
				columns[path] = nil
			}
		}
	}
	for _, s := range e.samples {
		columns["time"] = append(columns["time"], s.Time)
		for path := range columns {
			if path == "time" {
				continue
			}
			columns[path] = append(columns[path], domain.CloneValue(s.Values[path]))
		}
	}
	return columns
}

// Reset discards all captured samples.
func (e *Emitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = nil
}
