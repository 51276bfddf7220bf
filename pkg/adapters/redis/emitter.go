package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/microcosm/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Emitter implements ports.Emitter by appending one JSON record per sample
// to a Redis list, so external consumers (plotters, notebooks, downstream
// pipelines) can read a run's timeseries with LRANGE while it is still
// being produced.
type Emitter struct {
	client *backend.Client
	key    string
	ttl    time.Duration
}

type EmitterOption func(*Emitter)

// WithEmitterTTL sets an expiration on the sample list, refreshed on every
// emit so the series outlives the run by the given duration.
func WithEmitterTTL(ttl time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.ttl = ttl
	}
}

// NewEmitter creates an emitter that appends to the list
// "microcosm:samples:<run>".
func NewEmitter(client *backend.Client, run string, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		client: client,
		key:    "microcosm:samples:" + run,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the Redis list key the samples land on.
func (e *Emitter) Key() string {
	return e.key
}

// Emit appends the sample as one JSON record.
func (e *Emitter) Emit(ctx context.Context, sample domain.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	if err := e.client.RPush(ctx, e.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push sample: %w", err)
	}
	if e.ttl > 0 {
		if err := e.client.Expire(ctx, e.key, e.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh sample TTL: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (e *Emitter) Close() error {
	return nil
}
