package runtime

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/microcosm/pkg/domain"
)

// mutate applies the cycle's structural directives to the staged tree and
// registry. Directives are ordered by emitting process name; when two
// target overlapping subtrees the first wins and the rest are dropped with
// a warning.
func (e *Engine) mutate(ctx context.Context, work *domain.Tree, procs map[string]*boundProcess, agents map[string]*agentEntry, directives []pendingDirective) error {
	if len(directives) == 0 {
		return nil
	}
	sort.SliceStable(directives, func(i, j int) bool { return directives[i].proc < directives[j].proc })

	var applied []domain.Path
	for _, pd := range directives {
		owner, ok := e.procs[pd.proc]
		if !ok {
			return fmt.Errorf("directive from unknown process %q", pd.proc)
		}
		target, err := owner.topo.Resolve(pd.directive.Port)
		if err != nil {
			return fmt.Errorf("process %q: %w", pd.proc, err)
		}
		if overlaps(applied, target) {
			e.logger.Warn("structural conflict, directive dropped",
				"process", pd.proc, "kind", pd.directive.Kind.String(),
				"target", target.String(), "time", e.now)
			continue
		}

		switch pd.directive.Kind {
		case domain.DirectiveDivide:
			if err := e.divide(ctx, work, procs, agents, pd, target); err != nil {
				return err
			}
		case domain.DirectiveDelete:
			if err := e.remove(ctx, work, procs, agents, pd, target); err != nil {
				return err
			}
		default:
			return fmt.Errorf("process %q: unknown directive kind %d", pd.proc, pd.directive.Kind)
		}
		applied = append(applied, target)
	}
	return nil
}

func overlaps(applied []domain.Path, target domain.Path) bool {
	for _, p := range applied {
		if target.HasPrefix(p) || p.HasPrefix(target) {
			return true
		}
	}
	return false
}

// divide replaces a registered agent's subtree with two daughters. Each
// daughter's variables come from the parent's through the declared divider
// rules, and the agent's composite regenerates fresh processes for both.
func (e *Engine) divide(ctx context.Context, work *domain.Tree, procs map[string]*boundProcess, agents map[string]*agentEntry, pd pendingDirective, target domain.Path) error {
	key := target.String()
	agent, ok := agents[key]
	if !ok {
		return fmt.Errorf("process %q: divide targets %s where no agent is registered: %w",
			pd.proc, target, domain.ErrStructuralConflict)
	}

	ids, err := daughterIDs(target, pd.directive.DaughterIDs)
	if err != nil {
		return fmt.Errorf("process %q: %w", pd.proc, err)
	}

	left, right, err := work.DivideSubtree(target)
	if err != nil {
		return fmt.Errorf("process %q dividing %s: %w", pd.proc, target, err)
	}
	if err := work.RemoveSubtree(target); err != nil {
		return fmt.Errorf("dividing %s: %w", target, err)
	}

	dropAgentProcesses(procs, key)
	delete(agents, key)

	for i, daughter := range []*domain.Tree{left, right} {
		base := target.Parent().Child(ids[i])
		if err := work.InsertSubtree(base, daughter); err != nil {
			return fmt.Errorf("inserting daughter %s: %w", base, err)
		}
		if err := e.populateAgent(work, procs, base, agent.composite, true); err != nil {
			return err
		}
		agents[base.String()] = &agentEntry{base: base, composite: agent.composite}
		// Daughters pick up where the parent's interval ends.
		for _, b := range procs {
			if b.agent == base.String() {
				b.nextRun = e.now + b.timestep
			}
		}
	}

	e.logger.Info("agent divided",
		"parent", target.String(), "daughters", ids, "process", pd.proc, "time", e.now)
	e.emitDivide(ctx, &domain.StructureEvent{
		Time:      e.now,
		Process:   pd.proc,
		Kind:      domain.DirectiveDivide,
		Path:      target,
		Daughters: ids,
	})
	return nil
}

// daughterIDs fills empty daughter names from the parent's segment.
func daughterIDs(target domain.Path, ids [2]string) ([2]string, error) {
	parent := target.Base()
	for i := range ids {
		if ids[i] == "" {
			ids[i] = parent + strconv.Itoa(i)
		}
		if err := domain.ValidateSegment(ids[i]); err != nil {
			return ids, fmt.Errorf("daughter name: %w", err)
		}
	}
	if ids[0] == ids[1] {
		return ids, fmt.Errorf("%w: daughters share the name %q", domain.ErrStructuralConflict, ids[0])
	}
	return ids, nil
}

// remove deletes a subtree outright, along with any agents and processes
// living under it.
func (e *Engine) remove(ctx context.Context, work *domain.Tree, procs map[string]*boundProcess, agents map[string]*agentEntry, pd pendingDirective, target domain.Path) error {
	if err := work.RemoveSubtree(target); err != nil {
		return fmt.Errorf("process %q removing %s: %w", pd.proc, target, err)
	}
	for key, a := range agents {
		if a.base.HasPrefix(target) {
			dropAgentProcesses(procs, key)
			delete(agents, key)
		}
	}
	e.logger.Info("subtree removed", "target", target.String(), "process", pd.proc, "time", e.now)
	e.emitRemove(ctx, &domain.StructureEvent{
		Time:    e.now,
		Process: pd.proc,
		Kind:    domain.DirectiveDelete,
		Path:    target,
	})
	return nil
}
