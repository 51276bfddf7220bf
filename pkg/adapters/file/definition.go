package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/microcosm/pkg/composition"
)

// LoadDefinition reads a single-file YAML experiment definition. Unknown
// keys are rejected, so a misspelled field fails the load instead of
// silently running with a default. A definition without a name inherits
// the file's base name.
func LoadDefinition(path string) (*composition.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening definition: %w", err)
	}
	defer f.Close()

	def, err := DecodeDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", path, err)
	}
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// DecodeDefinition parses one YAML definition from r without validating
// it. Callers that synthesize defaults first (name, seed) validate
// afterwards.
func DecodeDefinition(r io.Reader) (*composition.Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def composition.Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return &def, nil
}
