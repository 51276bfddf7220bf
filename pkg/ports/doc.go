/*
Package ports defines the driven ports (interfaces) for the Microcosm engine.

These interfaces decouple the scheduling core from external implementations,
allowing experiments to run against various emitters, snapshot backends, and
process families.

# Key Interfaces

  - Process: A simulation mechanism the scheduler advances; it declares a
    Schema, a preferred TimeStep, and a pure Next transition.
  - Composite: A generator for a family of wired processes, re-invoked to
    populate daughter agents after division.
  - Emitter: Receives one Sample per committed cycle.
  - SnapshotStore: Persists and restores experiment snapshots.
*/
package ports
