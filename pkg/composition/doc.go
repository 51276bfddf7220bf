/*
Package composition assembles processes into runnable composites.

A Builder wires process factories to tree paths with a fluent API; the
resulting Composite generates fresh, fully-wired process instances under
any base path, which is how daughter agents are populated after division.
Composites nest recursively, so a whole cell model can be mounted as one
agent among many.

The package also defines the Definition types that experiment files
(YAML or markdown frontmatter) decode into, and the Catalog that maps
definition kinds to process constructors.
*/
package composition
