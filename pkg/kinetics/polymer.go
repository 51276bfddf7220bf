package kinetics

import (
	"fmt"
	"sort"
)

// Template is one transcription unit: the monomer sequence to polymerize
// and the product completing it yields.
type Template struct {
	Name     string
	Sequence []string
	Product  string
}

// Length returns the number of monomers in the template.
func (t Template) Length() int64 {
	return int64(len(t.Sequence))
}

// Polymerase is one active polymerization complex: which template it is
// on and how many monomers it has already added. Positions advance only
// through Elongator.Elongate.
type Polymerase struct {
	ID       int64
	Template string
	Position int64
}

// Elongator advances polymerases along their templates against monomer
// availability.
type Elongator struct {
	templates map[string]Template
}

// NewElongator validates the templates and returns an elongator.
func NewElongator(templates []Template) (*Elongator, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("elongator needs at least one template")
	}
	byName := make(map[string]Template, len(templates))
	for _, t := range templates {
		if t.Name == "" {
			return nil, fmt.Errorf("template without a name")
		}
		if len(t.Sequence) == 0 {
			return nil, fmt.Errorf("template %q has an empty sequence", t.Name)
		}
		if t.Product == "" {
			return nil, fmt.Errorf("template %q has no product", t.Name)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("template %q defined twice", t.Name)
		}
		byName[t.Name] = t
	}
	return &Elongator{templates: byName}, nil
}

// Template looks up a template by name.
func (e *Elongator) Template(name string) (Template, bool) {
	t, ok := e.templates[name]
	return t, ok
}

// ElongationResult is the outcome of one elongation step.
type ElongationResult struct {
	// Active holds the polymerases still on their templates, advanced.
	Active []Polymerase
	// Completed counts finished products by name; each completion also
	// frees its polymerase.
	Completed map[string]int64
	// Freed is the number of polymerases released by completion.
	Freed int64
	// Used counts consumed monomers by name.
	Used map[string]int64
	// Carry is the fractional monomer progress to persist until the next
	// invocation.
	Carry float64
}

// Elongate advances every active polymerase by the whole monomers accrued
// over elapsed time at the given rate, plus the carry left by the previous
// invocation. Each advance consumes the monomer the template calls for at
// that position from limits; a polymerase whose next monomer is exhausted
// stalls. Polymerases advance in ID order so scarce monomers are assigned
// deterministically. The limits map is not modified.
func (e *Elongator) Elongate(elapsed, rate, carry float64, limits map[string]int64, active []Polymerase) (ElongationResult, error) {
	if elapsed < 0 || rate < 0 {
		return ElongationResult{}, fmt.Errorf("negative elapsed %v or rate %v", elapsed, rate)
	}

	progress := carry + rate*elapsed
	budget := int64(progress)

	res := ElongationResult{
		Completed: make(map[string]int64),
		Used:      make(map[string]int64),
		Carry:     progress - float64(budget),
	}

	remaining := make(map[string]int64, len(limits))
	for m, c := range limits {
		remaining[m] = c
	}

	order := make([]Polymerase, len(active))
	copy(order, active)
	sort.Slice(order, func(i, j int) bool { return order[i].ID < order[j].ID })

	for _, p := range order {
		tmpl, ok := e.templates[p.Template]
		if !ok {
			return ElongationResult{}, fmt.Errorf("polymerase %d on unknown template %q", p.ID, p.Template)
		}
		if p.Position < 0 || p.Position > tmpl.Length() {
			return ElongationResult{}, fmt.Errorf("polymerase %d at impossible position %d on %q", p.ID, p.Position, p.Template)
		}
		for step := int64(0); step < budget && p.Position < tmpl.Length(); step++ {
			monomer := tmpl.Sequence[p.Position]
			if remaining[monomer] <= 0 {
				break
			}
			remaining[monomer]--
			res.Used[monomer]++
			p.Position++
		}
		if p.Position == tmpl.Length() {
			res.Completed[tmpl.Product]++
			res.Freed++
			continue
		}
		res.Active = append(res.Active, p)
	}

	return res, nil
}
