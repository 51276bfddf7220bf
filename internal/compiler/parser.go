// Package compiler turns reaction equations written as plain text into
// indexed systems the kinetics package can simulate. The grammar is one
// reaction per string:
//
//	reactants -> products @ rate
//
// Each side is a "+"-separated list of terms, a term is a species name
// with an optional integer coefficient ("2 ATP"), and an empty side or
// the literal "0" stands for no species (pure production or decay).
package compiler

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/kinetics"
)

// Network is a compiled reaction system. Species holds every species name
// in order of first appearance across the equations; each reaction's
// stoichiometry vector is indexed the same way.
type Network struct {
	Species   []string
	Reactions []kinetics.Reaction

	index map[string]int
}

// Parse compiles reaction equations into a network. Interning follows
// first appearance, so the same equations always produce the same
// species indexing.
func Parse(equations []string) (*Network, error) {
	if len(equations) == 0 {
		return nil, errors.New("no reactions given")
	}
	n := &Network{index: make(map[string]int)}
	for i, eq := range equations {
		r, err := n.compile(eq)
		if err != nil {
			return nil, fmt.Errorf("reaction %d (%q): %w", i+1, strings.TrimSpace(eq), err)
		}
		n.Reactions = append(n.Reactions, r)
	}
	// Species interned by later equations lengthen the index, so earlier
	// vectors need padding before every reaction spans the full list.
	for i := range n.Reactions {
		for len(n.Reactions[i].Stoichiometry) < len(n.Species) {
			n.Reactions[i].Stoichiometry = append(n.Reactions[i].Stoichiometry, 0)
		}
	}
	return n, nil
}

// System builds the simulatable form of the network.
func (n *Network) System() (*kinetics.System, error) {
	return kinetics.NewSystem(len(n.Species), n.Reactions)
}

// Index returns the position of a species in count vectors.
func (n *Network) Index(species string) (int, bool) {
	i, ok := n.index[species]
	return i, ok
}

// Counts assembles a count vector from named amounts. Species missing
// from the map start at zero; names the network does not know are an
// error, since they are almost always typos.
func (n *Network) Counts(amounts map[string]int64) ([]int64, error) {
	counts := make([]int64, len(n.Species))
	for name, v := range amounts {
		i, ok := n.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown species %q (have %s)", name, strings.Join(n.Species, ", "))
		}
		counts[i] = v
	}
	return counts, nil
}

// Amounts is the inverse of Counts: it names each entry of a count vector.
func (n *Network) Amounts(counts []int64) (map[string]int64, error) {
	if len(counts) != len(n.Species) {
		return nil, fmt.Errorf("count vector has %d entries, network has %d species", len(counts), len(n.Species))
	}
	out := make(map[string]int64, len(counts))
	for i, v := range counts {
		out[n.Species[i]] = v
	}
	return out, nil
}

type term struct {
	name  string
	count int64
}

func (n *Network) compile(eq string) (kinetics.Reaction, error) {
	text := strings.TrimSpace(eq)
	body, rateText, found := strings.Cut(text, "@")
	if !found {
		return kinetics.Reaction{}, errors.New(`missing "@ rate"`)
	}
	lhs, rhs, found := strings.Cut(body, "->")
	if !found {
		return kinetics.Reaction{}, errors.New(`missing "->"`)
	}
	consumed, err := parseSide(lhs)
	if err != nil {
		return kinetics.Reaction{}, err
	}
	produced, err := parseSide(rhs)
	if err != nil {
		return kinetics.Reaction{}, err
	}
	if len(consumed) == 0 && len(produced) == 0 {
		return kinetics.Reaction{}, errors.New("no species on either side")
	}
	// The stoichiometry vector nets consumption against production, so a
	// species on both sides would vanish from the propensity. Reject it
	// rather than silently simulate the wrong kinetics.
	for _, p := range produced {
		for _, c := range consumed {
			if p.name == c.name {
				return kinetics.Reaction{}, fmt.Errorf("species %q appears on both sides; split the reaction into elementary steps", p.name)
			}
		}
	}
	rateText = strings.TrimSpace(rateText)
	rate, err := strconv.ParseFloat(rateText, 64)
	if err != nil {
		return kinetics.Reaction{}, fmt.Errorf("rate %q is not a number", rateText)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return kinetics.Reaction{}, fmt.Errorf("rate must be finite and non-negative, got %v", rateText)
	}
	for _, t := range consumed {
		n.intern(t.name)
	}
	for _, t := range produced {
		n.intern(t.name)
	}
	stoich := make([]int64, len(n.Species))
	for _, t := range consumed {
		stoich[n.index[t.name]] -= t.count
	}
	for _, t := range produced {
		stoich[n.index[t.name]] += t.count
	}
	return kinetics.Reaction{Name: text, Stoichiometry: stoich, Rate: rate}, nil
}

func (n *Network) intern(name string) {
	if _, ok := n.index[name]; ok {
		return
	}
	n.index[name] = len(n.Species)
	n.Species = append(n.Species, name)
}

func parseSide(side string) ([]term, error) {
	side = strings.TrimSpace(side)
	if side == "" || side == "0" {
		return nil, nil
	}
	var terms []term
	for _, raw := range strings.Split(side, "+") {
		t, err := parseTerm(raw)
		if err != nil {
			return nil, err
		}
		merged := false
		for i := range terms {
			if terms[i].name == t.name {
				terms[i].count += t.count
				merged = true
				break
			}
		}
		if !merged {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

func parseTerm(raw string) (term, error) {
	fields := strings.Fields(raw)
	switch len(fields) {
	case 1:
		return newTerm(fields[0], 1)
	case 2:
		count, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || count <= 0 {
			return term{}, fmt.Errorf("coefficient %q must be a positive integer", fields[0])
		}
		return newTerm(fields[1], count)
	default:
		return term{}, fmt.Errorf("cannot parse term %q", strings.TrimSpace(raw))
	}
}

func newTerm(name string, count int64) (term, error) {
	if name == "0" {
		return term{}, errors.New(`"0" stands for an empty side and cannot be combined with species`)
	}
	// Species become variable names in the state tree, so they obey the
	// same segment rules as any other tree name.
	if err := domain.ValidateSegment(name); err != nil {
		return term{}, fmt.Errorf("species %q: %w", name, err)
	}
	return term{name: name, count: count}, nil
}
