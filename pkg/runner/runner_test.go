package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/microcosm/internal/runtime"
	"github.com/aretw0/microcosm/pkg/adapters/memory"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/session"
)

// countProcess increments one counter per cycle.
type countProcess struct{}

func (countProcess) Schema() domain.Schema {
	return domain.Schema{"data": {"count": domain.Variable{Value: int64(0), Emit: true}}}
}

func (countProcess) TimeStep() float64 { return 1 }

func (countProcess) Next(ctx context.Context, timestep float64, view domain.View) (domain.Update, error) {
	var u domain.Update
	u.Put("data", "count", domain.Entry{Value: int64(1)})
	return u, nil
}

// recordingHandler captures everything the runner sends it.
type recordingHandler struct {
	mu      sync.Mutex
	Began   []RunInfo
	Samples []domain.Sample
	Ended   []Result
	Closed  bool
}

func (h *recordingHandler) Begin(ctx context.Context, info RunInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Began = append(h.Began, info)
	return nil
}

func (h *recordingHandler) Emit(ctx context.Context, sample domain.Sample) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Samples = append(h.Samples, sample.Clone())
	return nil
}

func (h *recordingHandler) End(ctx context.Context, result Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Ended = append(h.Ended, result)
	return nil
}

func (h *recordingHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Closed = true
	return nil
}

func newCountExperiment(t *testing.T, emitter *recordingHandler) *runtime.Engine {
	t.Helper()
	eng := runtime.NewEngine(runtime.WithEmitter(emitter))
	topo := domain.Topology{"data": domain.MustPath("data")}
	if err := eng.AddProcess("count", countProcess{}, topo); err != nil {
		t.Fatalf("AddProcess failed: %v", err)
	}
	return eng
}

func TestRunner_Run_BasicFlow(t *testing.T) {
	handler := &recordingHandler{}
	r := New(WithHandler(handler), WithName("counting"))

	eng := newCountExperiment(t, handler)

	result, err := r.Run(t.Context(), eng, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Time != 3 {
		t.Errorf("expected t=3, got %g", result.Time)
	}
	if result.Cycles != 3 {
		t.Errorf("expected 3 cycles, got %d", result.Cycles)
	}
	if result.Interrupted {
		t.Error("run should not be interrupted")
	}

	if len(handler.Began) != 1 {
		t.Fatalf("expected 1 Begin, got %d", len(handler.Began))
	}
	info := handler.Began[0]
	if info.Name != "counting" || info.Horizon != 3 || info.Start != 0 {
		t.Errorf("unexpected RunInfo: %+v", info)
	}
	if len(info.Processes) != 1 || info.Processes[0] != "count" {
		t.Errorf("expected process list [count], got %v", info.Processes)
	}

	if len(handler.Samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(handler.Samples))
	}
	if got := handler.Samples[2].Values["data/count"]; got != int64(3) {
		t.Errorf("expected final count 3, got %v", got)
	}

	if len(handler.Ended) != 1 || handler.Ended[0].Cycles != 3 {
		t.Errorf("expected one End with 3 cycles, got %+v", handler.Ended)
	}
	if !handler.Closed {
		t.Error("handler not closed")
	}
}

func TestRunner_Run_Checkpoints(t *testing.T) {
	handler := &recordingHandler{}
	store := memory.NewStore()
	sessions := session.NewManager(store)

	r := New(
		WithHandler(handler),
		WithSessions(sessions, "run-1"),
		WithCheckpointEvery(2),
	)
	eng := newCountExperiment(t, handler)

	if _, err := r.Run(t.Context(), eng, 5); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snap, err := sessions.Load(t.Context(), "run-1")
	if err != nil {
		t.Fatalf("checkpoint not found: %v", err)
	}
	if snap.Time != 5 {
		t.Errorf("expected final checkpoint at t=5, got t=%g", snap.Time)
	}
}

func TestRunner_Run_SanitizesRunID(t *testing.T) {
	handler := &recordingHandler{}
	store := memory.NewStore()
	sessions := session.NewManager(store)

	r := New(WithHandler(handler), WithSessions(sessions, "run 1/a\x1b[0m"))
	eng := newCountExperiment(t, handler)

	if _, err := r.Run(t.Context(), eng, 1); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if r.RunID != "run1a[0m" {
		t.Errorf("expected sanitized run id, got %q", r.RunID)
	}
	if _, err := sessions.Load(t.Context(), r.RunID); err != nil {
		t.Errorf("checkpoint missing under sanitized id: %v", err)
	}
}

func TestRunner_Run_Interrupted(t *testing.T) {
	handler := &recordingHandler{}
	store := memory.NewStore()
	sessions := session.NewManager(store)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	r := New(WithHandler(handler), WithSessions(sessions, "run-int"))
	eng := newCountExperiment(t, handler)

	result, err := r.Run(ctx, eng, 100)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if !result.Interrupted {
		t.Error("result should be marked interrupted")
	}
	if len(handler.Ended) != 1 || !handler.Ended[0].Interrupted {
		t.Errorf("handler should see an interrupted result, got %+v", handler.Ended)
	}

	// The interrupt still leaves a resumable checkpoint behind.
	if _, err := sessions.Load(context.Background(), "run-int"); err != nil {
		t.Errorf("expected final checkpoint despite interrupt: %v", err)
	}
}

func TestRunner_Run_NoTimedProcesses(t *testing.T) {
	handler := &recordingHandler{}
	r := New(WithHandler(handler))
	eng := runtime.NewEngine(runtime.WithEmitter(handler))

	_, err := r.Run(t.Context(), eng, 10)
	if err == nil || !strings.Contains(err.Error(), "no timed processes") {
		t.Fatalf("expected no-timed-processes error, got %v", err)
	}
	if len(handler.Began) != 0 {
		t.Error("Begin should not run for an empty experiment")
	}
}

func TestRunner_Run_StrictProcessFailure(t *testing.T) {
	handler := &recordingHandler{}
	r := New(WithHandler(handler))

	eng := runtime.NewEngine(runtime.WithEmitter(handler), runtime.WithStrict(true))
	topo := domain.Topology{"data": domain.MustPath("data")}
	if err := eng.AddProcess("boom", failingProcess{}, topo); err != nil {
		t.Fatalf("AddProcess failed: %v", err)
	}

	result, err := r.Run(t.Context(), eng, 10)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected process failure to surface, got %v", err)
	}
	if result.Interrupted {
		t.Error("a process failure is not an interrupt")
	}
	if len(handler.Ended) != 1 {
		t.Errorf("End should still report after a failure, got %d", len(handler.Ended))
	}
}

type failingProcess struct{}

func (failingProcess) Schema() domain.Schema {
	return domain.Schema{"data": {"count": domain.Variable{Value: int64(0)}}}
}

func (failingProcess) TimeStep() float64 { return 1 }

func (failingProcess) Next(ctx context.Context, timestep float64, view domain.View) (domain.Update, error) {
	return domain.Update{}, errors.New("boom")
}

func TestRunner_ResolveHandlerMemoized(t *testing.T) {
	r := New(WithFilter(Thin(2)))
	first := r.ResolveHandler()
	second := r.ResolveHandler()
	if first != second {
		t.Error("ResolveHandler must return the same instance across calls")
	}
}
