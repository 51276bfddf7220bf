package schema

// Schema is a map of config field names to their expected types.
// Example: {"rate": Float(), "threshold": Optional(Float()), "stages": Slice(String())}
type Schema map[string]Type

// Validate checks if a config map conforms to the schema.
// Fields not wrapped in Optional are required. Returns an error with all
// validation failures found.
func Validate(schema Schema, config map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	var errs []error

	// Validate each field in the schema
	for fieldName, fieldType := range schema {
		value, exists := config[fieldName]
		if !exists {
			if IsOptional(fieldType) {
				continue
			}
			errs = append(errs, &ValidationError{
				Field:  fieldName,
				Reason: "required",
				Value:  nil,
			})
			continue
		}

		// Validate the value against the type
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Field:  fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	// If there are errors, aggregate them
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// ValidateFields validates only specific fields from the config against the
// schema. Missing fields are treated as an error even when optional.
func ValidateFields(schema Schema, config map[string]any, fields ...string) error {
	if len(fields) == 0 {
		// No fields to validate
		return nil
	}

	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			// Field not defined in schema
			errs = append(errs, &ValidationError{
				Field:  fieldName,
				Reason: "not defined in schema",
				Value:  nil,
			})
			continue
		}

		value, fieldExists := config[fieldName]
		if !fieldExists {
			errs = append(errs, &ValidationError{
				Field:  fieldName,
				Reason: "required",
				Value:  nil,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Field:  fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
