/*
Package microcosm is a deterministic simulation engine for compositional
models of cells and cell populations.

It implements a "shared state tree with scheduled processes" architecture,
separating what a model computes (Processes) from where its results live
(the State Tree) and how they combine (Updaters).

# Concept

Microcosm treats a simulation as a set of independent processes wired onto
a hierarchical state tree. Each process declares a schema of ports and
runs on its own clock; a topology binds the ports to paths in the tree.
The scheduler advances simulated time, runs every process that is due,
and merges their updates through per-variable updaters, so two processes
can write the same molecule count without ever seeing each other. This
hexagonal layout keeps the core free of I/O: emitters, snapshot stores
and transports are adapters around it.

# Key Features

  - Deterministic Execution: Given the same definition and seed, a run
    reproduces cycle for cycle, including its stochastic kinetics.
  - Compositional Models: Processes combine without coordination; the
    merge phase resolves concurrent writes through declared updaters.
  - Agent Division: Subtrees divide into daughters mid-run, with
    per-variable dividers and fresh processes for each daughter.
  - Durable Runs: Snapshots checkpoint a run and restore it bit-exact,
    including large integer counts.

# Usage

Build an experiment from a declarative definition, or compose one in code
with AddProcess. The zero-configuration path records every emitted
variable in memory:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/microcosm"
		"github.com/aretw0/microcosm/pkg/composition"
	)

	func main() {
		def := composition.Definition{
			Name:    "growing-cell",
			Horizon: 10,
			Processes: []composition.ProcessSpec{
				{
					Name:     "growth",
					Kind:     "growth",
					Config:   map[string]any{"rate": 0.1},
					Topology: map[string]string{"global": "agents/0/cell"},
				},
			},
		}

		exp, err := microcosm.FromDefinition(def, nil)
		if err != nil {
			log.Fatal(err)
		}

		if err := exp.Run(context.Background(), def.Horizon); err != nil {
			log.Fatal(err)
		}

		for _, sample := range exp.Timeseries() {
			fmt.Println(sample.Time, sample.Values)
		}
	}

The cmd/microcosm CLI wraps the same entry points with definition files,
persistent sessions and live observation over HTTP and MCP.
*/
package microcosm
