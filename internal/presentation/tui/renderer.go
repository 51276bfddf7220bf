package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown-to-ANSI renderer for run descriptions and
// reports. The style follows the detected terminal background; when no
// renderer can be built (a dumb terminal, no TTY) the markdown passes
// through unchanged rather than failing the run.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil || r == nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
