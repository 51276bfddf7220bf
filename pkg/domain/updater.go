package domain

import "fmt"

// Updater selects the rule that combines an incoming update value with the
// current value of a variable. The set of updaters is closed: schemas and
// update overrides resolve to one of these variants at declaration time,
// never to a name looked up mid-cycle.
type Updater int

const (
	// UpdaterUnspecified resolves to the engine default (accumulate) when a
	// declaration leaves the updater out. Keeping it distinct from the
	// default lets schema merging tell "unset" apart from "explicitly set".
	UpdaterUnspecified Updater = iota
	UpdaterAccumulate
	UpdaterSet
	UpdaterMerge
	UpdaterNull
)

var updaterNames = map[Updater]string{
	UpdaterUnspecified: "",
	UpdaterAccumulate:  "accumulate",
	UpdaterSet:         "set",
	UpdaterMerge:       "merge",
	UpdaterNull:        "null",
}

// ParseUpdater resolves a configuration name to an updater. The empty
// string maps to UpdaterUnspecified.
func ParseUpdater(name string) (Updater, error) {
	for u, n := range updaterNames {
		if n == name {
			return u, nil
		}
	}
	return UpdaterUnspecified, fmt.Errorf("%w: %q", ErrUnknownUpdater, name)
}

func (u Updater) String() string {
	if n, ok := updaterNames[u]; ok {
		return n
	}
	return fmt.Sprintf("updater(%d)", int(u))
}

// Apply combines an incoming value with the current one. Both values are
// expected in normalized form (see NormalizeValue). The incoming value is
// never aliased into the result.
func (u Updater) Apply(current, incoming any) (any, error) {
	switch u {
	case UpdaterAccumulate:
		return accumulate(current, incoming)
	case UpdaterSet:
		return CloneValue(incoming), nil
	case UpdaterMerge:
		return mergeMaps(current, incoming)
	case UpdaterNull:
		return current, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpdater, u)
	}
}

// accumulate adds numbers. Two int64 values stay int64; any float operand
// widens the result to float64.
func accumulate(current, incoming any) (any, error) {
	ci, cIsInt := current.(int64)
	ii, iIsInt := incoming.(int64)
	if cIsInt && iIsInt {
		return ci + ii, nil
	}
	cf, cOK := asFloat(current)
	nf, iOK := asFloat(incoming)
	if !cOK || !iOK {
		return nil, fmt.Errorf("%w: accumulate needs numeric operands, got %T and %T",
			ErrSchemaViolation, current, incoming)
	}
	return cf + nf, nil
}

// mergeMaps unions the incoming map into the current one. Nested maps merge
// recursively; any other value is overwritten.
func mergeMaps(current, incoming any) (any, error) {
	cm, cOK := current.(map[string]any)
	im, iOK := incoming.(map[string]any)
	if !iOK {
		return nil, fmt.Errorf("%w: merge needs a map value, got %T", ErrSchemaViolation, incoming)
	}
	if !cOK {
		if current == nil {
			return CloneValue(im), nil
		}
		return nil, fmt.Errorf("%w: merge target is %T, not a map", ErrSchemaViolation, current)
	}
	out := CloneValue(cm).(map[string]any)
	for k, iv := range im {
		if cv, ok := out[k]; ok {
			if _, cvMap := cv.(map[string]any); cvMap {
				if _, ivMap := iv.(map[string]any); ivMap {
					merged, err := mergeMaps(cv, iv)
					if err != nil {
						return nil, err
					}
					out[k] = merged
					continue
				}
			}
		}
		out[k] = CloneValue(iv)
	}
	return out, nil
}
