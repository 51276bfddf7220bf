package loam

// ExperimentMetadata is the frontmatter of an experiment document.
// It uses "mapstructure" tags to match standard frontmatter/YAML keys.
// Numeric fields stay untyped because strict loam repositories hand them
// over as json.Number; conversion happens in the loader.
type ExperimentMetadata struct {
	Name        string            `json:"name" mapstructure:"name"`
	Description string            `json:"description,omitempty" mapstructure:"description"`
	Horizon     any               `json:"horizon" mapstructure:"horizon"`
	Seed        any               `json:"seed,omitempty" mapstructure:"seed"`
	Emitter     string            `json:"emitter,omitempty" mapstructure:"emitter"`
	Processes   []ProcessMetadata `json:"processes" mapstructure:"processes"`
}

// ProcessMetadata declares one process of an experiment document.
type ProcessMetadata struct {
	Name     string            `json:"name" mapstructure:"name"`
	Kind     string            `json:"kind" mapstructure:"kind"`
	Config   map[string]any    `json:"config,omitempty" mapstructure:"config"`
	Topology map[string]string `json:"topology" mapstructure:"topology"`
}
