package domain

import "encoding/json"

// NormalizeValue canonicalizes numeric values so updaters and dividers see
// exactly two numeric kinds: int64 for counts and float64 for continuous
// quantities. Integer arithmetic stays exact at molecule-count scale.
// json.Number values (from decoded snapshots) resolve to int64 when they
// parse as integers.
func NormalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = NormalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// CloneValue deep-copies the container types variables are allowed to hold.
// Scalars pass through; maps, slices and nested combinations are copied so
// a projected view can never alias live tree state.
func CloneValue(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = CloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(n))
		copy(out, n)
		return out
	case []int64:
		out := make([]int64, len(n))
		copy(out, n)
		return out
	case []float64:
		out := make([]float64, len(n))
		copy(out, n)
		return out
	default:
		return v
	}
}

// isNegative reports whether a normalized numeric value is below zero.
// Non-numeric values are never negative.
func isNegative(v any) bool {
	switch n := v.(type) {
	case int64:
		return n < 0
	case float64:
		return n < 0
	default:
		return false
	}
}

// asFloat converts a normalized numeric value to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
