package process

import (
	"fmt"

	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// VariableSpec declares one schema variable with configuration-friendly
// enum names, mirroring domain.Variable.
type VariableSpec struct {
	Value       any    `mapstructure:"value" json:"value"`
	Updater     string `mapstructure:"updater" json:"updater,omitempty"`
	Divider     string `mapstructure:"divider" json:"divider,omitempty"`
	Emit        bool   `mapstructure:"emit" json:"emit,omitempty"`
	NonNegative bool   `mapstructure:"non_negative" json:"non_negative,omitempty"`
}

// Config declares an external process: the command to spawn each cycle and
// the schema it computes against.
type Config struct {
	// Command is the executable, run once per scheduler invocation.
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`

	// Dir is the child's working directory.
	Dir string `mapstructure:"dir"`

	// Env adds KEY=VALUE pairs to the child's environment.
	Env map[string]string `mapstructure:"env"`

	TimeStep float64 `mapstructure:"time_step"`

	// Deriver schedules the command in the derive phase instead of on a
	// timestep.
	Deriver bool `mapstructure:"deriver"`

	// Schema declares the ports the child reads and may write.
	Schema map[string]map[string]VariableSpec `mapstructure:"schema"`
}

func (c Config) schema() (domain.Schema, error) {
	out := make(domain.Schema, len(c.Schema))
	for port, vars := range c.Schema {
		out[port] = make(map[string]domain.Variable, len(vars))
		for name, spec := range vars {
			updater, err := domain.ParseUpdater(spec.Updater)
			if err != nil {
				return nil, fmt.Errorf("variable %s/%s: %w", port, name, err)
			}
			divider, err := domain.ParseDivider(spec.Divider)
			if err != nil {
				return nil, fmt.Errorf("variable %s/%s: %w", port, name, err)
			}
			out[port][name] = domain.Variable{
				Value:       domain.NormalizeValue(spec.Value),
				Updater:     updater,
				Divider:     divider,
				Emit:        spec.Emit,
				NonNegative: spec.NonNegative,
			}
		}
	}
	return out, nil
}

// Constructor adapts New for catalog registration. External commands run
// with the caller's privileges, so the kind is not part of the default
// catalog; register it only where that is acceptable.
func Constructor() composition.Constructor {
	return func(config map[string]any) (ports.Process, error) {
		var cfg Config
		if err := composition.Decode(config, &cfg); err != nil {
			return nil, err
		}
		return New(cfg)
	}
}
