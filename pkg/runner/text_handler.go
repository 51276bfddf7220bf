package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/microcosm/pkg/adapters/console"
	"github.com/aretw0/microcosm/pkg/domain"
)

// TextHandler implements the standard text-based presentation: a header,
// one line per committed sample through a console emitter, and a summary.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	emitter *console.Emitter
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the renderer applied to the
// experiment description in Begin.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text output.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer:  w,
		emitter: console.NewEmitter(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Begin prints the run header and, when a renderer is configured, the
// rendered experiment description.
func (h *TextHandler) Begin(ctx context.Context, info RunInfo) error {
	name := info.Name
	if name == "" {
		name = "experiment"
	}
	if info.Resumed {
		fmt.Fprintf(h.Writer, "--- %s: resuming %s at t=%g, horizon t=%g ---\n",
			name, info.RunID, info.Start, info.Horizon)
	} else {
		fmt.Fprintf(h.Writer, "--- %s: %d processes, horizon t=%g ---\n",
			name, len(info.Processes), info.Horizon)
	}
	if info.Description != "" {
		output := info.Description
		if h.Renderer != nil {
			if rendered, err := h.Renderer(info.Description); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	}
	return nil
}

// Emit prints one line per committed sample.
func (h *TextHandler) Emit(ctx context.Context, sample domain.Sample) error {
	return h.emitter.Emit(ctx, sample)
}

// End prints the run summary.
func (h *TextHandler) End(ctx context.Context, result Result) error {
	elapsed := result.Elapsed.Round(time.Millisecond)
	if result.Interrupted {
		fmt.Fprintf(h.Writer, "--- interrupted at t=%g after %d cycles (%s) ---\n",
			result.Time, result.Cycles, elapsed)
		return nil
	}
	fmt.Fprintf(h.Writer, "--- done: t=%g, %d cycles in %s ---\n",
		result.Time, result.Cycles, elapsed)
	return nil
}

// Close flushes the underlying emitter.
func (h *TextHandler) Close() error {
	return h.emitter.Close()
}
