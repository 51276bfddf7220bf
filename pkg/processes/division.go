package processes

import (
	"context"
	"fmt"

	"github.com/aretw0/microcosm/pkg/domain"
)

// DivisionConfig configures a Division process.
type DivisionConfig struct {
	// Threshold is the value at or above which division fires.
	Threshold float64 `mapstructure:"threshold"`

	// Variable is the observed leaf name, "mass" by default.
	Variable string `mapstructure:"variable"`

	TimeStep float64 `mapstructure:"time_step"`
}

// Division watches a single variable and requests an agent division when it
// reaches the threshold. The directive targets the "agent" port, which the
// composition wires to the agent's subtree root.
type Division struct {
	cfg DivisionConfig
}

// NewDivision validates the configuration and returns the process.
func NewDivision(cfg DivisionConfig) (*Division, error) {
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("division threshold must be positive, got %v", cfg.Threshold)
	}
	if cfg.Variable == "" {
		cfg.Variable = "mass"
	}
	if err := domain.ValidateSegment(cfg.Variable); err != nil {
		return nil, fmt.Errorf("division variable: %w", err)
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	return &Division{cfg: cfg}, nil
}

// Schema declares the observed trigger variable and the agent port the
// directive targets. The agent port carries no variables; it only names the
// subtree to divide.
func (d *Division) Schema() domain.Schema {
	return domain.Schema{
		"trigger": {
			d.cfg.Variable: {},
		},
		"agent": {},
	}
}

// TimeStep returns the configured interval.
func (d *Division) TimeStep() float64 {
	return d.cfg.TimeStep
}

// Next emits a Divide directive once the trigger reaches the threshold.
func (d *Division) Next(_ context.Context, _ float64, view domain.View) (domain.Update, error) {
	var update domain.Update
	if view.Float("trigger", d.cfg.Variable) >= d.cfg.Threshold {
		update.Direct(domain.Directive{Kind: domain.DirectiveDivide, Port: "agent"})
	}
	return update, nil
}
