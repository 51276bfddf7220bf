package kinetics

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aretw0/microcosm/pkg/domain"
)

// TemplateSpec configures one transcription unit of an Expression process.
type TemplateSpec struct {
	Name        string   `mapstructure:"name"`
	Sequence    []string `mapstructure:"sequence"`
	Product     string   `mapstructure:"product"`
	Copies      int64    `mapstructure:"copies"`
	BindingRate float64  `mapstructure:"binding_rate"`
}

// ExpressionConfig configures an Expression process.
type ExpressionConfig struct {
	Templates []TemplateSpec `mapstructure:"templates"`

	// ElongationRate is monomers added per polymerase per time unit.
	ElongationRate float64 `mapstructure:"elongation_rate"`

	// Polymerase names the free-enzyme variable on the molecules port.
	Polymerase string `mapstructure:"polymerase"`

	TimeStep float64 `mapstructure:"time_step"`
	Seed     int64   `mapstructure:"seed"`
}

// Expression is a gene-expression process: stochastic promoter binding as
// a continuous-time Markov chain, interleaved with deterministic polymer
// elongation inside each timestep. Free polymerases bind templates, walk
// their sequences consuming monomers, and release both a transcript and
// themselves at the terminator.
//
// All persistent progress, including the active polymerases and the
// fractional elongation carry, lives in the machinery port of the state
// tree, so the process itself holds no mutable simulation state beyond
// its random stream.
type Expression struct {
	cfg       ExpressionConfig
	system    *System
	elongator *Elongator
	order     []string
	monomers  []string
	products  []string
	rng       *rand.Rand
}

// NewExpression validates the configuration and builds the process.
func NewExpression(cfg ExpressionConfig) (*Expression, error) {
	if len(cfg.Templates) == 0 {
		return nil, fmt.Errorf("expression needs at least one template")
	}
	if cfg.ElongationRate <= 0 {
		return nil, fmt.Errorf("elongation rate must be positive, got %v", cfg.ElongationRate)
	}
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	if cfg.Polymerase == "" {
		cfg.Polymerase = "polymerase"
	}

	templates := make([]Template, 0, len(cfg.Templates))
	monomers := make(map[string]bool)
	products := make(map[string]bool)
	for i := range cfg.Templates {
		spec := &cfg.Templates[i]
		if spec.Copies == 0 {
			spec.Copies = 1
		}
		if spec.Copies < 0 {
			return nil, fmt.Errorf("template %q: negative copies %d", spec.Name, spec.Copies)
		}
		if spec.BindingRate <= 0 {
			return nil, fmt.Errorf("template %q: binding rate must be positive, got %v", spec.Name, spec.BindingRate)
		}
		templates = append(templates, Template{Name: spec.Name, Sequence: spec.Sequence, Product: spec.Product})
		for _, m := range spec.Sequence {
			monomers[m] = true
		}
		products[spec.Product] = true
	}

	elongator, err := NewElongator(templates)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(cfg.Templates))
	for _, spec := range cfg.Templates {
		order = append(order, spec.Name)
	}
	sort.Strings(order)

	// One binding channel per template, all drawing from the single free
	// polymerase pool.
	reactions := make([]Reaction, len(order))
	for i, name := range order {
		for _, spec := range cfg.Templates {
			if spec.Name == name {
				reactions[i] = Reaction{
					Name:          "bind:" + name,
					Stoichiometry: []int64{-1},
					Rate:          spec.BindingRate * float64(spec.Copies),
				}
			}
		}
	}
	system, err := NewSystem(1, reactions)
	if err != nil {
		return nil, err
	}

	return &Expression{
		cfg:       cfg,
		system:    system,
		elongator: elongator,
		order:     order,
		monomers:  sortedKeys(monomers),
		products:  sortedKeys(products),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Schema declares three ports: molecules (free polymerase and monomers),
// transcripts (completed products), and machinery (active polymerases plus
// the fractional elongation carry).
func (e *Expression) Schema() domain.Schema {
	molecules := map[string]domain.Variable{
		e.cfg.Polymerase: {Value: int64(0), NonNegative: true, Divider: domain.DividerSplit, Emit: true},
	}
	for _, m := range e.monomers {
		molecules[m] = domain.Variable{Value: int64(0), NonNegative: true, Divider: domain.DividerSplit, Emit: true}
	}
	transcripts := make(map[string]domain.Variable, len(e.products))
	for _, p := range e.products {
		transcripts[p] = domain.Variable{Value: int64(0), NonNegative: true, Divider: domain.DividerSplit, Emit: true}
	}
	return domain.Schema{
		"molecules":   molecules,
		"transcripts": transcripts,
		"machinery": {
			"state": domain.Variable{
				Value:   freshMachinery(),
				Updater: domain.UpdaterSet,
				Divider: domain.DividerZero,
			},
		},
	}
}

// TimeStep returns the configured interval.
func (e *Expression) TimeStep() float64 {
	return e.cfg.TimeStep
}

// Next evolves binding stochastically over the interval and elongates the
// active polymerases between binding events and through the remainder of
// the interval.
func (e *Expression) Next(_ context.Context, timestep float64, view domain.View) (domain.Update, error) {
	if timestep <= 0 {
		return domain.Update{}, fmt.Errorf("expression needs a positive timestep, got %v", timestep)
	}

	active, carry, nextID, err := decodeMachinery(view.Map("machinery", "state"))
	if err != nil {
		return domain.Update{}, err
	}

	limits := make(map[string]int64, len(e.monomers))
	for _, m := range e.monomers {
		limits[m] = view.Int("molecules", m)
	}

	evolved, err := e.system.Evolve(e.rng, timestep, []int64{view.Int("molecules", e.cfg.Polymerase)})
	if err != nil {
		return domain.Update{}, fmt.Errorf("binding kinetics: %w", err)
	}

	used := make(map[string]int64)
	completed := make(map[string]int64)
	var freed int64
	now := 0.0

	advance := func(until float64) error {
		res, err := e.elongator.Elongate(until-now, e.cfg.ElongationRate, carry, limits, active)
		if err != nil {
			return err
		}
		for m, n := range res.Used {
			used[m] += n
			limits[m] -= n
		}
		for p, n := range res.Completed {
			completed[p] += n
		}
		freed += res.Freed
		active = res.Active
		carry = res.Carry
		now = until
		return nil
	}

	for _, ev := range evolved.Events {
		if err := advance(ev.Time); err != nil {
			return domain.Update{}, err
		}
		active = append(active, Polymerase{ID: nextID, Template: e.order[ev.Reaction], Position: 0})
		nextID++
	}
	if err := advance(timestep); err != nil {
		return domain.Update{}, err
	}

	bound := int64(len(evolved.Events))

	var update domain.Update
	if delta := freed - bound; delta != 0 {
		update.Put("molecules", e.cfg.Polymerase, domain.Entry{Value: delta})
	}
	for _, m := range e.monomers {
		if used[m] != 0 {
			update.Put("molecules", m, domain.Entry{Value: -used[m]})
		}
	}
	for _, p := range e.products {
		if completed[p] != 0 {
			update.Put("transcripts", p, domain.Entry{Value: completed[p]})
		}
	}
	update.Put("machinery", "state", domain.Entry{
		Value:   encodeMachinery(active, carry, nextID),
		Updater: domain.UpdaterSet,
	})
	return update, nil
}

func freshMachinery() map[string]any {
	return map[string]any{
		"active":  []any{},
		"carry":   float64(0),
		"next_id": int64(1),
	}
}

func encodeMachinery(active []Polymerase, carry float64, nextID int64) map[string]any {
	list := make([]any, len(active))
	for i, p := range active {
		list[i] = map[string]any{
			"id":       p.ID,
			"template": p.Template,
			"position": p.Position,
		}
	}
	return map[string]any{
		"active":  list,
		"carry":   carry,
		"next_id": nextID,
	}
}

func decodeMachinery(m map[string]any) (active []Polymerase, carry float64, nextID int64, err error) {
	if m == nil {
		return nil, 0, 1, nil
	}
	carry, _ = toFloat(m["carry"])
	nextID, _ = toInt(m["next_id"])
	if nextID < 1 {
		nextID = 1
	}
	raw, _ := m["active"].([]any)
	for _, entry := range raw {
		em, ok := entry.(map[string]any)
		if !ok {
			return nil, 0, 0, fmt.Errorf("machinery state corrupt: active entry is %T", entry)
		}
		id, okID := toInt(em["id"])
		pos, okPos := toInt(em["position"])
		tmpl, okTmpl := em["template"].(string)
		if !okID || !okPos || !okTmpl {
			return nil, 0, 0, fmt.Errorf("machinery state corrupt: %v", em)
		}
		active = append(active, Polymerase{ID: id, Template: tmpl, Position: pos})
	}
	return active, carry, nextID, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
