package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/microcosm/internal/presentation/graph"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// Server exposes one experiment over HTTP. It also implements
// ports.Emitter: every committed sample is broadcast to SSE subscribers
// on /events, so dashboards can follow a run live.
//
// The experiment is not safe for concurrent stepping; the server
// serializes all mutating requests.
type Server struct {
	Experiment ports.Experiment
	Streams    *StreamManager
	Version    string

	// run serializes /step and /run; the engine is single-threaded.
	run sync.Mutex

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetrics mounts a metrics handler (e.g. the observability package's
// promhttp handler) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion reports the given version on /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the server without mounting routes; use Handler for
// the ready-to-serve mux.
func NewServer(exp ports.Experiment, opts ...Option) *Server {
	s := &Server{
		Experiment: exp,
		Streams:    NewStreamManager(),
		Version:    "dev",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the experiment.
func NewHandler(exp ports.Experiment, opts ...Option) http.Handler {
	return NewServer(exp, opts...).Handler()
}

// Handler mounts the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Get("/topology", s.GetTopology)
	r.Get("/processes", s.GetProcesses)
	r.Get("/graph", s.GetGraph)
	r.Post("/step", s.PostStep)
	r.Post("/run", s.PostRun)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"app":     "microcosm-http",
		"version": s.Version,
		"time":    s.Experiment.Now(),
		"cycles":  s.Experiment.Cycles(),
	})
}

// GetState handles the GET /state request: the full nested state plus the
// simulated clock, as a snapshot document.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.run.Lock()
	snap := s.Experiment.Snapshot("live")
	s.run.Unlock()
	s.writeJSON(w, snap)
}

// GetTopology handles the GET /topology request.
func (s *Server) GetTopology(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Experiment.Topologies())
}

// GetProcesses handles the GET /processes request.
func (s *Server) GetProcesses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"processes": s.Experiment.ProcessNames(),
		"derivers":  s.Experiment.Derivers(),
		"agents":    s.Experiment.Agents(),
	})
}

// GetGraph handles the GET /graph request, returning the wiring as a
// Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	mermaid := graph.GenerateMermaid(s.Experiment.Topologies(), &graph.Overlay{
		Derivers: s.Experiment.Derivers(),
		Agents:   s.Experiment.Agents(),
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(mermaid)); err != nil {
		s.logger.Error("graph write failed", "err", err)
	}
}

// PostStep handles the POST /step request: one scheduler cycle.
func (s *Server) PostStep(w http.ResponseWriter, r *http.Request) {
	s.run.Lock()
	defer s.run.Unlock()

	if err := s.Experiment.Step(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("step error: %v", err), http.StatusInternalServerError)
		s.logger.Error("step failed", "err", err)
		return
	}
	s.writeJSON(w, map[string]any{
		"time":   s.Experiment.Now(),
		"cycles": s.Experiment.Cycles(),
	})
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Horizon float64 `json:"horizon"`
}

// PostRun handles the POST /run request: advance until the horizon.
// The request context cancels the run when the client disconnects.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("run: invalid request body", "err", err)
		return
	}
	if body.Horizon <= 0 {
		http.Error(w, "horizon must be positive", http.StatusBadRequest)
		return
	}

	s.run.Lock()
	defer s.run.Unlock()

	if err := s.Experiment.Run(r.Context(), body.Horizon); err != nil {
		http.Error(w, fmt.Sprintf("run error: %v", err), http.StatusInternalServerError)
		s.logger.Error("run failed", "err", err, "horizon", body.Horizon)
		return
	}
	s.writeJSON(w, map[string]any{
		"time":   s.Experiment.Now(),
		"cycles": s.Experiment.Cycles(),
	})
}

// Emit implements ports.Emitter by broadcasting the sample to all SSE
// subscribers. Wire the server as (or inside) the experiment's emitter to
// stream live data.
func (s *Server) Emit(ctx context.Context, sample domain.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}
	s.Streams.Broadcast(string(data))
	return nil
}

// Close implements ports.Emitter.
func (s *Server) Close() error {
	return nil
}

// SubscribeEvents handles the GET /events request (SSE). Each committed
// sample arrives as one data event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		s.logger.Error("events: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release it.
func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast fans the message out to every subscriber. Slow clients with a
// full buffer miss the message rather than blocking the run.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}
