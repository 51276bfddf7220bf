package runner

import (
	"context"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
)

// EmitFilter is a middleware that intercepts a committed sample on its way
// to the handler. It may narrow the sample and reports whether to keep it.
// Filters see every sample in cycle order, so stateful filters work.
type EmitFilter func(sample domain.Sample) (domain.Sample, bool)

// MultiFilter chains multiple filters. A sample passes only if every
// filter keeps it, each seeing the previous filter's narrowing.
func MultiFilter(filters ...EmitFilter) EmitFilter {
	return func(sample domain.Sample) (domain.Sample, bool) {
		for _, filter := range filters {
			var keep bool
			sample, keep = filter(sample)
			if !keep {
				return sample, false
			}
		}
		return sample, true
	}
}

// Thin keeps one sample out of every n, starting with the first. It cuts
// console and log volume on long runs without touching the run itself.
// n below 2 keeps everything.
func Thin(n uint64) EmitFilter {
	if n < 2 {
		return func(s domain.Sample) (domain.Sample, bool) { return s, true }
	}
	var seen uint64
	return func(s domain.Sample) (domain.Sample, bool) {
		keep := seen%n == 0
		seen++
		return s, keep
	}
}

// PathPrefix narrows samples to the values under prefix and drops samples
// that carry none. Matching is segment-aware: "cell" matches "cell/count"
// but not "cells/count".
func PathPrefix(prefix string) EmitFilter {
	prefix = strings.Trim(prefix, domain.PathSeparator)
	return func(s domain.Sample) (domain.Sample, bool) {
		if prefix == "" {
			return s, true
		}
		kept := make(map[string]any)
		for path, v := range s.Values {
			if path == prefix || strings.HasPrefix(path, prefix+domain.PathSeparator) {
				kept[path] = v
			}
		}
		if len(kept) == 0 {
			return s, false
		}
		s.Values = kept
		return s, true
	}
}

// Filtered wraps a handler so only samples passing every filter reach it.
// Begin, End and Close pass through untouched.
func Filtered(h Handler, filters ...EmitFilter) Handler {
	return &filteredHandler{next: h, filter: MultiFilter(filters...)}
}

type filteredHandler struct {
	next   Handler
	filter EmitFilter
}

func (f *filteredHandler) Begin(ctx context.Context, info RunInfo) error {
	return f.next.Begin(ctx, info)
}

func (f *filteredHandler) Emit(ctx context.Context, sample domain.Sample) error {
	kept, ok := f.filter(sample)
	if !ok {
		return nil
	}
	return f.next.Emit(ctx, kept)
}

func (f *filteredHandler) End(ctx context.Context, result Result) error {
	return f.next.End(ctx, result)
}

func (f *filteredHandler) Close() error {
	return f.next.Close()
}
