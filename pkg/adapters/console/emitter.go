package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/microcosm/pkg/domain"
)

// Emitter implements ports.Emitter by printing one line per sample.
// On a terminal the line is colorized through termenv; when output is
// piped it degrades to plain key=value text so runs stay grep-able.
type Emitter struct {
	w   io.Writer
	out *termenv.Output
	tty bool
}

// NewEmitter creates an emitter writing to w. Pass os.Stdout for CLI runs;
// logging goes to stderr so the sample stream stays clean.
func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{w: w, out: termenv.NewOutput(w)}
	if f, ok := w.(*os.File); ok {
		e.tty = term.IsTerminal(int(f.Fd()))
	}
	return e
}

// NewStdout creates an emitter on standard output.
func NewStdout() *Emitter {
	return NewEmitter(os.Stdout)
}

// Emit prints the sample's emitted variables in path order.
func (e *Emitter) Emit(ctx context.Context, sample domain.Sample) error {
	paths := make([]string, 0, len(sample.Values))
	for p := range sample.Values {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	if e.tty {
		p := e.out.ColorProfile()
		b.WriteString(e.out.String(fmt.Sprintf("t=%-8.6g", sample.Time)).Foreground(p.Color("#818cf8")).String())
		for _, path := range paths {
			b.WriteString(" ")
			b.WriteString(e.out.String(path).Foreground(p.Color("#a78bfa")).String())
			b.WriteString(e.out.String("=").Faint().String())
			b.WriteString(fmt.Sprintf("%v", sample.Values[path]))
		}
	} else {
		fmt.Fprintf(&b, "t=%g", sample.Time)
		for _, path := range paths {
			fmt.Fprintf(&b, " %s=%v", path, sample.Values[path])
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(e.w, b.String())
	return err
}

// Close is a no-op; the writer is owned by the caller.
func (e *Emitter) Close() error {
	return nil
}
