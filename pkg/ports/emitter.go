package ports

import (
	"context"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Emitter receives one sample per committed cycle: the cycle time plus the
// values of every emit-marked variable. Emission happens after the cycle's
// state swap, so an emitter never observes an aborted cycle.
type Emitter interface {
	Emit(ctx context.Context, sample domain.Sample) error

	// Close flushes and releases the emitter. The experiment calls it once
	// at the end of a run.
	Close() error
}

// MultiEmitter duplicates each sample to every given emitter, similar to
// io.MultiWriter. Emit stops at the first failing sink; Close closes all
// of them regardless and reports the first error.
func MultiEmitter(emitters ...Emitter) Emitter {
	if len(emitters) == 1 {
		return emitters[0]
	}
	out := make(multiEmitter, len(emitters))
	copy(out, emitters)
	return out
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(ctx context.Context, sample domain.Sample) error {
	for _, e := range m {
		if err := e.Emit(ctx, sample); err != nil {
			return err
		}
	}
	return nil
}

func (m multiEmitter) Close() error {
	var first error
	for _, e := range m {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
