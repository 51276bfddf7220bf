/*
Package dsl provides a fluent Go API for constructing experiment
definitions programmatically.

It builds the same composition.Definition that YAML files and markdown
frontmatter produce, using a type-safe builder instead of an external
document. This is particularly useful for generated experiments, unit
tests, and leveraging IDE autocompletion.

Example usage:

	def, err := dsl.New("growth-division").
		Describe("exponential growth with threshold division").
		Horizon(30).
		Seed(7).
		Add("growth", "growth").
		Set("rate", 0.05).
		Bind("cell", "agents/0/cell").
		Add("division", "division").
		Set("threshold", 2.0).
		Bind("cell", "agents/0/cell").
		Build()
	if err != nil {
		log.Fatal(err)
	}

	// The resulting definition materializes through a catalog like any
	// loaded one.
	procs, topos, err := catalog.Materialize(def)
*/
package dsl
