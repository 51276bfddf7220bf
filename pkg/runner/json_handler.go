package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/aretw0/microcosm/pkg/domain"
)

// event is one line of the JSON-lines protocol. Type discriminates which
// payload field is set.
type event struct {
	Type   string         `json:"type"`
	Run    *RunInfo       `json:"run,omitempty"`
	Sample *domain.Sample `json:"sample,omitempty"`
	Result *Result        `json:"result,omitempty"`
}

// JSONHandler implements the Handler interface for structured JSON-Lines
// output: one event object per line, suitable for piping into another
// process or appending to a results log.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON-lines output.
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

// Begin emits a "begin" event carrying the run description.
func (h *JSONHandler) Begin(ctx context.Context, info RunInfo) error {
	return h.Encoder.Encode(event{Type: "begin", Run: &info})
}

// Emit emits one "sample" event per committed cycle.
func (h *JSONHandler) Emit(ctx context.Context, sample domain.Sample) error {
	return h.Encoder.Encode(event{Type: "sample", Sample: &sample})
}

// End emits an "end" event carrying the run result.
func (h *JSONHandler) End(ctx context.Context, result Result) error {
	return h.Encoder.Encode(event{Type: "end", Result: &result})
}

// Close is a no-op; the encoder writes through on every event.
func (h *JSONHandler) Close() error {
	return nil
}
