package domain

import (
	"fmt"
	"math"
)

// Divider selects how a variable's value is distributed across the two
// daughters when its subtree divides. Like Updater, the set is closed.
type Divider int

const (
	// DividerUnspecified resolves to the engine default (set) when a
	// declaration leaves the divider out.
	DividerUnspecified Divider = iota
	DividerSet
	DividerSplit
	DividerZero
	DividerAssertNoDivide
)

var dividerNames = map[Divider]string{
	DividerUnspecified:    "",
	DividerSet:            "set",
	DividerSplit:          "split",
	DividerZero:           "zero",
	DividerAssertNoDivide: "assert_no_divide",
}

// ParseDivider resolves a configuration name to a divider. The empty
// string maps to DividerUnspecified.
func ParseDivider(name string) (Divider, error) {
	for d, n := range dividerNames {
		if n == name {
			return d, nil
		}
	}
	return DividerUnspecified, fmt.Errorf("%w: %q", ErrUnknownDivider, name)
}

func (d Divider) String() string {
	if n, ok := dividerNames[d]; ok {
		return n
	}
	return fmt.Sprintf("divider(%d)", int(d))
}

// Divide produces the values the two daughters inherit. The value is
// expected in normalized form. Split conserves integer totals exactly,
// handing the odd remainder to the first daughter: 7 becomes 4 and 3.
func (d Divider) Divide(value any) ([2]any, error) {
	switch d {
	case DividerSet:
		return [2]any{CloneValue(value), CloneValue(value)}, nil
	case DividerSplit:
		return split(value)
	case DividerZero:
		switch value.(type) {
		case float64:
			return [2]any{float64(0), float64(0)}, nil
		case int64, nil:
			return [2]any{int64(0), int64(0)}, nil
		default:
			return [2]any{}, fmt.Errorf("%w: zero divider on %T", ErrSchemaViolation, value)
		}
	case DividerAssertNoDivide:
		return [2]any{}, ErrNoDivide
	default:
		return [2]any{}, fmt.Errorf("%w: %s", ErrUnknownDivider, d)
	}
}

func split(value any) ([2]any, error) {
	switch n := value.(type) {
	case int64:
		second := n / 2
		return [2]any{n - second, second}, nil
	case float64:
		if math.IsInf(n, 0) {
			return [2]any{n, n}, nil
		}
		return [2]any{n / 2, n / 2}, nil
	default:
		return [2]any{}, fmt.Errorf("%w: split divider on %T", ErrSchemaViolation, value)
	}
}
