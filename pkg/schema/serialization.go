package schema

import (
	"encoding/json"
	"fmt"
)

// Config schemas serialize as the same shorthand experiment documents use
// to declare them: a flat map of field names to type strings, like
//
//	{"rate": "float", "seed": "int?", "reactions": "[string]", "counts": "{int}"}
//
// Each type's canonical name round-trips through ParseType, optional "?"
// markers included, so a catalog can publish its config schemas over the
// wire and a client can validate against them.

// MarshalJSON writes the schema in the shorthand form above.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}

	return json.Marshal(raw)
}

// UnmarshalJSON reads the shorthand form back into a parsed schema. An
// unknown type string fails here, not at validation time.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	if string(data) == "null" {
		*s = nil
		return nil
	}

	raw, err := decodeTypeStrings(data)
	if err != nil {
		return err
	}

	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

// decodeTypeStrings accepts the strict map[string]string encoding and the
// looser map[string]any that generic JSON decoding produces, rejecting
// any value that is not a type string.
func decodeTypeStrings(data []byte) (map[string]string, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err == nil {
		return raw, nil
	}

	var loose map[string]any
	if err := json.Unmarshal(data, &loose); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	raw = make(map[string]string, len(loose))
	for key, value := range loose {
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %s: expected a type string like \"float\" or \"int?\", got %T", key, value)
		}
		raw[key] = str
	}
	return raw, nil
}
