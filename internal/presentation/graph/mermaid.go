package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Overlay contains dynamic engine data to visualize on the wiring graph.
type Overlay struct {
	// Derivers lists processes that run in the derive phase, drawn with a
	// dashed border.
	Derivers []string
	// Agents lists subtree bases that carry a composite, highlighted so
	// dividing lineages stand out.
	Agents []string
}

// GenerateMermaid produces a Mermaid flowchart of an experiment's wiring:
// one subroutine-shaped node per process, one stadium-shaped node per
// distinct state path, and one labeled edge per port binding.
func GenerateMermaid(topologies map[string]map[string]string, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	procs := make([]string, 0, len(topologies))
	for name := range topologies {
		procs = append(procs, name)
	}
	sort.Strings(procs)

	// Declare state nodes once each, in path order.
	stateSet := make(map[string]bool)
	for _, ports := range topologies {
		for _, path := range ports {
			stateSet[path] = true
		}
	}
	states := make([]string, 0, len(stateSet))
	for path := range stateSet {
		states = append(states, path)
	}
	sort.Strings(states)
	for _, path := range states {
		sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", stateID(path), path))
	}

	for _, name := range procs {
		safeID := sanitizeMermaidID(name)
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", safeID, name))

		ports := make([]string, 0, len(topologies[name]))
		for port := range topologies[name] {
			ports = append(ports, port)
		}
		sort.Strings(ports)
		for _, port := range ports {
			sb.WriteString(fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, port, stateID(topologies[name][port])))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef deriver stroke-dasharray: 5 5,color:#000;\n")
		sb.WriteString("    classDef agent fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Derivers {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s deriver;\n", safeID))
			}
		}
		for _, base := range overlay.Agents {
			id := stateID(base)
			if stateSet[base] && !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s agent;\n", id))
			}
		}
	}

	return sb.String()
}

// stateID namespaces state nodes so a process named like a path segment
// cannot collide with it.
func stateID(path string) string {
	return "s_" + sanitizeMermaidID(path)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
