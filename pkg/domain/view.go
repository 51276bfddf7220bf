package domain

// View is the read-only snapshot of state a process receives for one
// invocation: for each schema port, the variables' values as of the start
// of the cycle. All values are deep copies taken at projection time, so a
// process can never observe another process's writes mid-cycle.
type View struct {
	values map[string]map[string]any
}

// NewView wraps projected values. The caller hands over ownership of the map.
func NewView(values map[string]map[string]any) View {
	return View{values: values}
}

// Has reports whether the view carries a value for port/name.
func (v View) Has(port, name string) bool {
	_, ok := v.values[port][name]
	return ok
}

// Value returns the raw value for port/name.
func (v View) Value(port, name string) (any, bool) {
	val, ok := v.values[port][name]
	return val, ok
}

// Port returns all values of one port. Callers must treat the result as
// read-only.
func (v View) Port(port string) map[string]any {
	return v.values[port]
}

// Float returns the value as float64, widening int64 counts. Missing or
// non-numeric values read as zero.
func (v View) Float(port, name string) float64 {
	if f, ok := asFloat(v.values[port][name]); ok {
		return f
	}
	return 0
}

// Int returns the value as int64, truncating float64. Missing or
// non-numeric values read as zero.
func (v View) Int(port, name string) int64 {
	switch n := v.values[port][name].(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Bool returns the value as bool, false when missing or mistyped.
func (v View) Bool(port, name string) bool {
	b, _ := v.values[port][name].(bool)
	return b
}

// String returns the value as string, empty when missing or mistyped.
func (v View) String(port, name string) string {
	s, _ := v.values[port][name].(string)
	return s
}

// Map returns the value as a nested map, nil when missing or mistyped.
func (v View) Map(port, name string) map[string]any {
	m, _ := v.values[port][name].(map[string]any)
	return m
}
