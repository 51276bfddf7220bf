package schema

import (
	"encoding/json"
	"testing"
)

func TestValidate_Success(t *testing.T) {
	cfg := Schema{
		"rate":     Float(),
		"variable": String(),
		"seeded":   Bool(),
		"count":    Int(),
		"stages":   Slice(String()),
	}

	config := map[string]any{
		"rate":     0.05,
		"variable": "mass",
		"seeded":   true,
		"count":    3,
		"stages":   []string{"elongation", "termination"},
	}

	err := Validate(cfg, config)
	if err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_StrictModeNumerics(t *testing.T) {
	// Values from strict-mode documents arrive as json.Number.
	cfg := Schema{
		"rate":  Float(),
		"count": Int(),
	}

	config := map[string]any{
		"rate":  json.Number("0.693"),
		"count": json.Number("64"),
	}

	if err := Validate(cfg, config); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	cfg := Schema{
		"rate":     Float(),
		"variable": String(),
	}

	config := map[string]any{
		"rate": 0.05,
		// missing variable
	}

	err := Validate(cfg, config)
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	aggr, ok := err.(*AggregateError)
	if !ok {
		t.Fatalf("error should be *AggregateError, got %T", err)
	}

	if len(aggr.Errors) != 1 {
		t.Errorf("Validate() = %d errors, want 1", len(aggr.Errors))
	}

	validErr, ok := aggr.Errors[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", aggr.Errors[0])
	}

	if validErr.Field != "variable" {
		t.Errorf("Field = %q, want %q", validErr.Field, "variable")
	}
	if validErr.Reason != "required" {
		t.Errorf("Reason = %q, want %q", validErr.Reason, "required")
	}
}

func TestValidate_MissingOptionalField(t *testing.T) {
	cfg := Schema{
		"rate":      Float(),
		"threshold": Optional(Float()),
	}

	config := map[string]any{
		"rate": 0.05,
		// threshold omitted
	}

	if err := Validate(cfg, config); err != nil {
		t.Errorf("Validate() error = %v, want nil for missing optional field", err)
	}

	// A present optional field with the wrong type still fails.
	config["threshold"] = "double"
	if err := Validate(cfg, config); err == nil {
		t.Error("Validate() should reject wrong-typed optional field")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Schema{
		"rate":     Float(),
		"variable": String(),
		"count":    Int(),
	}

	config := map[string]any{
		"rate":  "fast",  // wrong type
		"count": 1.5,     // not a whole number
		// variable missing
	}

	err := Validate(cfg, config)
	if err == nil {
		t.Fatal("Validate() should return errors")
	}

	errs := ValidationErrors(err)
	if len(errs) != 3 {
		t.Errorf("ValidationErrors() = %d errors, want 3: %v", len(errs), err)
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	config := map[string]any{"anything": "goes"}

	if err := Validate(nil, config); err != nil {
		t.Errorf("Validate(nil, ...) error = %v, want nil", err)
	}
	if err := Validate(Schema{}, config); err != nil {
		t.Errorf("Validate(empty, ...) error = %v, want nil", err)
	}
}

func TestValidate_ExtraFieldsIgnored(t *testing.T) {
	// Unknown keys are the decoder's concern; the schema only checks declared fields.
	cfg := Schema{
		"rate": Float(),
	}

	config := map[string]any{
		"rate":  0.05,
		"extra": "ignored",
	}

	if err := Validate(cfg, config); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidateFields(t *testing.T) {
	cfg := Schema{
		"rate":      Float(),
		"threshold": Optional(Float()),
	}

	config := map[string]any{
		"rate": 0.05,
	}

	if err := ValidateFields(cfg, config, "rate"); err != nil {
		t.Errorf("ValidateFields(rate) error = %v, want nil", err)
	}

	// Explicitly requested fields must be present, optional or not.
	if err := ValidateFields(cfg, config, "threshold"); err == nil {
		t.Error("ValidateFields(threshold) should fail when field is missing")
	}

	// Fields outside the schema are an error.
	if err := ValidateFields(cfg, config, "unknown"); err == nil {
		t.Error("ValidateFields(unknown) should fail for undeclared field")
	}

	if err := ValidateFields(cfg, config); err != nil {
		t.Errorf("ValidateFields() with no fields error = %v, want nil", err)
	}
}

func TestSchemaSerializationRoundTrip(t *testing.T) {
	cfg := Schema{
		"rate":      Float(),
		"threshold": Optional(Float()),
		"stages":    Slice(String()),
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Schema
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(decoded) != len(cfg) {
		t.Fatalf("round trip len = %d, want %d", len(decoded), len(cfg))
	}
	if decoded["rate"].Name() != "float" {
		t.Errorf("rate = %q, want float", decoded["rate"].Name())
	}
	if !IsOptional(decoded["threshold"]) {
		t.Error("threshold should survive as optional")
	}
	if decoded["stages"].Name() != "[string]" {
		t.Errorf("stages = %q, want [string]", decoded["stages"].Name())
	}
}
