package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/microcosm/pkg/domain"
)

// contribution is one leaf's worth of one process's update, resolved to an
// absolute path and an effective updater.
type contribution struct {
	proc    string
	path    domain.Path
	value   any
	updater domain.Updater
}

// pendingDirective is a structural request awaiting the mutate phase.
type pendingDirective struct {
	proc      string
	directive domain.Directive
}

// merge applies every surviving update to the working tree. Set entries go
// first; at most one process may set a given leaf per cycle, anything more
// is unresolvable. The remaining entries apply in process-name order, so
// order-sensitive updaters stay deterministic. Structural directives are
// collected for the mutate phase.
func (e *Engine) merge(work *domain.Tree, executions []execution) ([]pendingDirective, error) {
	var sets, rest []contribution
	var directives []pendingDirective
	setOwners := make(map[string][]string)

	for _, ex := range executions {
		if ex.err != nil {
			continue
		}
		if err := e.validateUpdate(ex.proc, ex.update); err != nil {
			if e.strict {
				return nil, err
			}
			e.logger.Warn("update rejected", "process", ex.proc.name, "time", e.now, "err", err)
			continue
		}
		for _, port := range sortedKeys(ex.update.Entries) {
			base, err := ex.proc.topo.Resolve(port)
			if err != nil {
				return nil, fmt.Errorf("process %q: %w", ex.proc.name, err)
			}
			for _, name := range sortedKeys(ex.update.Entries[port]) {
				entry := ex.update.Entries[port][name]
				c := contribution{
					proc:    ex.proc.name,
					path:    base.Child(name),
					value:   entry.Value,
					updater: e.effectiveUpdater(work, base.Child(name), entry),
				}
				switch c.updater {
				case domain.UpdaterNull:
				case domain.UpdaterSet:
					key := c.path.String()
					setOwners[key] = append(setOwners[key], c.proc)
					sets = append(sets, c)
				default:
					rest = append(rest, c)
				}
			}
		}
		for _, d := range ex.update.Directives {
			directives = append(directives, pendingDirective{proc: ex.proc.name, directive: d})
		}
	}

	for _, key := range sortedKeys(setOwners) {
		if owners := setOwners[key]; len(owners) > 1 {
			return nil, fmt.Errorf("%w: %s set by %s at t=%v",
				domain.ErrMergeConflict, key, strings.Join(owners, ", "), e.now)
		}
	}

	sort.SliceStable(sets, func(i, j int) bool { return sets[i].path.String() < sets[j].path.String() })
	for _, c := range sets {
		if err := e.applyContribution(work, c); err != nil {
			return nil, err
		}
	}
	// Executions arrive in process-name order and entries are walked in
	// sorted order, so rest is already deterministic.
	for _, c := range rest {
		if err := e.applyContribution(work, c); err != nil {
			return nil, err
		}
	}
	return directives, nil
}

// effectiveUpdater resolves an entry's updater: an explicit override wins,
// otherwise the declared variable decides. A vanished leaf (its subtree
// was removed in an earlier cycle) surfaces later as an apply error.
func (e *Engine) effectiveUpdater(work *domain.Tree, path domain.Path, entry domain.Entry) domain.Updater {
	if entry.Updater != domain.UpdaterUnspecified {
		return entry.Updater
	}
	if v, ok := work.Variable(path); ok {
		return v.EffectiveUpdater()
	}
	return domain.UpdaterAccumulate
}

// applyContribution commits one entry. A negative-quantity violation is
// a biological invariant breach and aborts the cycle in every mode;
// dropping the delta would mask the modeling bug the same way clamping
// would. Other apply errors honor the error policy: strict aborts,
// otherwise the entry is dropped with a warning.
func (e *Engine) applyContribution(work *domain.Tree, c contribution) error {
	if err := work.Apply(c.path, c.value, c.updater, c.proc); err != nil {
		if e.strict || errors.Is(err, domain.ErrNegativeValue) {
			return fmt.Errorf("at t=%v: %w", e.now, err)
		}
		e.logger.Warn("update entry dropped",
			"process", c.proc, "path", c.path.String(), "time", e.now, "err", err)
	}
	return nil
}

// validateUpdate checks an update against the process's declared schema:
// every touched port and variable, and every directive port, must have
// been declared. A violation rejects the whole update.
func (e *Engine) validateUpdate(b *boundProcess, update domain.Update) error {
	for port, entries := range update.Entries {
		vars, ok := b.schema[port]
		if !ok {
			return fmt.Errorf("%w: process %q wrote undeclared port %q", domain.ErrSchemaViolation, b.name, port)
		}
		for name := range entries {
			if _, ok := vars[name]; !ok {
				return fmt.Errorf("%w: process %q wrote undeclared variable %s/%s", domain.ErrSchemaViolation, b.name, port, name)
			}
		}
	}
	for _, d := range update.Directives {
		if _, ok := b.schema[d.Port]; !ok {
			return fmt.Errorf("%w: process %q directed undeclared port %q", domain.ErrSchemaViolation, b.name, d.Port)
		}
	}
	return nil
}

// applyUpdate validates and applies a single process's update outside the
// batched merge, which is how deriver output lands.
func (e *Engine) applyUpdate(work *domain.Tree, b *boundProcess, update domain.Update) error {
	if err := e.validateUpdate(b, update); err != nil {
		if e.strict {
			return err
		}
		e.logger.Warn("update rejected", "process", b.name, "time", e.now, "err", err)
		return nil
	}
	for _, port := range sortedKeys(update.Entries) {
		base, err := b.topo.Resolve(port)
		if err != nil {
			return fmt.Errorf("process %q: %w", b.name, err)
		}
		for _, name := range sortedKeys(update.Entries[port]) {
			entry := update.Entries[port][name]
			c := contribution{
				proc:    b.name,
				path:    base.Child(name),
				value:   entry.Value,
				updater: e.effectiveUpdater(work, base.Child(name), entry),
			}
			if c.updater == domain.UpdaterNull {
				continue
			}
			if err := e.applyContribution(work, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
