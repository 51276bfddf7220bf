package composition

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Decode maps a free-form configuration (YAML document, frontmatter,
// JSON) onto a typed config struct. Unknown keys are an error, so a typo
// in an experiment file fails at construction instead of silently running
// with defaults.
func Decode(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
		DecodeHook:  jsonNumberHook,
	})
	if err != nil {
		return fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

// jsonNumberHook resolves json.Number values, which strict JSON decoding
// and loam repositories hand us, into the numeric kinds config structs
// declare.
func jsonNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return n.Int64()
	case reflect.String:
		return n.String(), nil
	default:
		return data, nil
	}
}
