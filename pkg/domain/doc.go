/*
Package domain contains the core domain model for the Microcosm engine.

It defines the fundamental entities of hierarchical state composition: the
state Tree, Paths that address it, Variable declarations with their update
and division rules, Schemas and Topologies that bind processes onto the
tree, and the Update values processes hand back to the scheduler. This
package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Path: An ordered list of segments addressing a variable or subtree.
  - Variable: A leaf value plus immutable combination metadata.
  - Tree: The nested store shared by all processes of an experiment.
  - Schema / Topology: What a process declares, and where it is wired.
  - Update: The transient result of one process invocation, including
    structural directives such as agent division.
*/
package domain
