package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/runner"
)

// Report is the end-of-run summary, assembled as markdown so the same
// content renders to ANSI through NewRenderer or stays plain in a log.
type Report struct {
	Info   runner.RunInfo
	Result runner.Result

	// Diff carries the state changes between the starting and final
	// snapshots. Nil means nothing changed.
	Diff *domain.SnapshotDiff
}

// Markdown assembles the report text.
func (r Report) Markdown() string {
	var sb strings.Builder

	name := r.Info.Name
	if name == "" {
		name = "experiment"
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)
	if r.Info.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(r.Info.Description))
	}

	status := "completed"
	if r.Result.Interrupted {
		status = "interrupted"
	}
	fmt.Fprintf(&sb, "Run %s at t=%g after %d cycles (%s wall time).\n\n",
		status, r.Result.Time, r.Result.Cycles, r.Result.Elapsed)
	if r.Info.Resumed {
		fmt.Fprintf(&sb, "Resumed from t=%g under run ID `%s`.\n\n", r.Info.Start, r.Info.RunID)
	}
	if len(r.Info.Processes) > 0 {
		fmt.Fprintf(&sb, "Processes: %s.\n\n", strings.Join(r.Info.Processes, ", "))
	}

	sb.WriteString("## Changes\n\n")
	if r.Diff == nil {
		sb.WriteString("No state changes.\n")
		return sb.String()
	}
	writeDiff(&sb, r.Diff)
	return sb.String()
}

func writeDiff(sb *strings.Builder, diff *domain.SnapshotDiff) {
	if len(diff.State) > 0 {
		sb.WriteString("| Path | Final value |\n|---|---|\n")
		paths := make([]string, 0, len(diff.State))
		for p := range diff.State {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			v := diff.State[p]
			if v == nil {
				fmt.Fprintf(sb, "| %s | *removed* |\n", p)
				continue
			}
			fmt.Fprintf(sb, "| %s | %v |\n", p, v)
		}
		sb.WriteString("\n")
	}
	if diff.Processes != nil {
		if len(diff.Processes.Added) > 0 {
			fmt.Fprintf(sb, "Processes added: %s.\n\n", strings.Join(diff.Processes.Added, ", "))
		}
		if len(diff.Processes.Removed) > 0 {
			fmt.Fprintf(sb, "Processes removed: %s.\n\n", strings.Join(diff.Processes.Removed, ", "))
		}
	}
}
