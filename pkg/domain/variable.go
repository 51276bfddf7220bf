package domain

import (
	"fmt"
	"reflect"
)

// Variable is a leaf of the state tree: a value plus the metadata that
// governs how updates combine into it and how it divides. Metadata is
// fixed at declaration time; only the scheduler's merge phase changes
// the value afterwards.
type Variable struct {
	// Value is the current (or, in a schema, the initial) value. Numeric
	// values are normalized to int64 or float64.
	Value any

	// Updater combines incoming update values into Value.
	Updater Updater

	// Divider distributes Value across daughters on division.
	Divider Divider

	// Emit marks the variable for inclusion in emitted samples.
	Emit bool

	// NonNegative declares a biological count or concentration that must
	// never go below zero. The merge phase enforces it and attributes a
	// violation to the writing process.
	NonNegative bool

	// Properties carries free-form annotations such as units or molecular
	// weight. The engine never interprets them.
	Properties map[string]any
}

// Clone returns an independent copy of the variable.
func (v Variable) Clone() Variable {
	c := v
	c.Value = CloneValue(v.Value)
	if v.Properties != nil {
		c.Properties = CloneValue(v.Properties).(map[string]any)
	}
	return c
}

// EffectiveUpdater resolves an unspecified updater to the default, accumulate.
func (v Variable) EffectiveUpdater() Updater {
	if v.Updater == UpdaterUnspecified {
		return UpdaterAccumulate
	}
	return v.Updater
}

// EffectiveDivider resolves an unspecified divider to the default, set.
func (v Variable) EffectiveDivider() Divider {
	if v.Divider == DividerUnspecified {
		return DividerSet
	}
	return v.Divider
}

// MergeVariables combines two declarations of the same variable, as when
// two processes bind ports onto one path. Unspecified fields defer to
// specified ones; explicitly conflicting metadata or differing initial
// values are a schema conflict.
func MergeVariables(a, b Variable) (Variable, error) {
	out := a.Clone()

	switch {
	case a.Updater == UpdaterUnspecified:
		out.Updater = b.Updater
	case b.Updater == UpdaterUnspecified || a.Updater == b.Updater:
	default:
		return Variable{}, fmt.Errorf("%w: updater %s vs %s", ErrSchemaConflict, a.Updater, b.Updater)
	}

	switch {
	case a.Divider == DividerUnspecified:
		out.Divider = b.Divider
	case b.Divider == DividerUnspecified || a.Divider == b.Divider:
	default:
		return Variable{}, fmt.Errorf("%w: divider %s vs %s", ErrSchemaConflict, a.Divider, b.Divider)
	}

	out.Emit = a.Emit || b.Emit
	out.NonNegative = a.NonNegative || b.NonNegative

	switch {
	case a.Value == nil:
		out.Value = CloneValue(b.Value)
	case b.Value == nil || reflect.DeepEqual(a.Value, b.Value):
	default:
		return Variable{}, fmt.Errorf("%w: initial value %v vs %v", ErrSchemaConflict, a.Value, b.Value)
	}

	if b.Properties != nil {
		if out.Properties == nil {
			out.Properties = make(map[string]any, len(b.Properties))
		}
		for k, bv := range b.Properties {
			if av, ok := out.Properties[k]; ok && !reflect.DeepEqual(av, bv) {
				return Variable{}, fmt.Errorf("%w: property %q %v vs %v", ErrSchemaConflict, k, av, bv)
			}
			out.Properties[k] = CloneValue(bv)
		}
	}

	return out, nil
}
