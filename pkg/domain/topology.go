package domain

import (
	"fmt"
	"sort"
)

// Topology wires a process onto the tree: each schema port maps to the
// absolute path of the subtree holding that port's variables. Bindings are
// fixed for the lifetime of a process instance; division produces fresh
// instances with rebased topologies rather than mutating existing ones.
type Topology map[string]Path

// Resolve returns the absolute path bound to a port.
func (t Topology) Resolve(port string) (Path, error) {
	p, ok := t[port]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPortNotBound, port)
	}
	return p, nil
}

// Ports returns the bound port names in sorted order.
func (t Topology) Ports() []string {
	ports := make([]string, 0, len(t))
	for p := range t {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	return ports
}

// Clone returns an independent copy.
func (t Topology) Clone() Topology {
	out := make(Topology, len(t))
	for port, p := range t {
		out[port] = p.Clone()
	}
	return out
}

// Rebase rewrites every binding under from to live under to instead.
// Bindings outside from, such as a shared environment, stay absolute and
// unchanged. Used when a daughter inherits her parent's wiring.
func (t Topology) Rebase(from, to Path) Topology {
	out := make(Topology, len(t))
	for port, p := range t {
		rebased, _ := p.Rebase(from, to)
		out[port] = rebased
	}
	return out
}

// Strings returns the bindings with canonical path strings, for
// serialization and display.
func (t Topology) Strings() map[string]string {
	out := make(map[string]string, len(t))
	for port, p := range t {
		out[port] = p.String()
	}
	return out
}
