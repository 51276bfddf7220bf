// Package schema provides a type-safe validation system for process
// configuration maps.
//
// Process configs arrive as free-form maps from experiment documents, where
// numerics may surface as json.Number, int64, or float64 depending on the
// source format. The type system here validates those maps before a process
// constructor decodes them, so a typo in an experiment file fails with a
// field-level message instead of a decode error deep in a constructor.
//
// Basic usage:
//
//	cfg := schema.Schema{
//	    "rate":      schema.Float(),
//	    "threshold": schema.Optional(schema.Float()),
//	    "stages":    schema.Slice(schema.String()),
//	}
//
//	config := map[string]any{
//	    "rate":   0.05,
//	    "stages": []any{"elongation", "termination"},
//	}
//
//	if err := schema.Validate(cfg, config); err != nil {
//	    // Handle validation errors
//	}
//
// Schemas can be created programmatically or parsed from the type-string
// shorthand experiment documents use:
//
//	typeMap := map[string]string{
//	    "rate":      "float",
//	    "threshold": "float?",
//	    "stages":    "[string]",
//	}
//
//	cfg, err := schema.ParseTypeMap(typeMap)
//
// Custom validators can be registered for domain-specific validation:
//
//	positiveFloat := schema.Custom("positive_float", func(v any) error {
//	    f, ok := v.(float64)
//	    if !ok {
//	        return fmt.Errorf("expected float")
//	    }
//	    if f <= 0 {
//	        return fmt.Errorf("must be positive")
//	    }
//	    return nil
//	})
//
// This package is designed to be library-agnostic, with zero external dependencies
// beyond the Go standard library. It can be embedded in larger systems or extracted
// as a standalone library.
package schema
