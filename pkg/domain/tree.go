package domain

import (
	"fmt"
	"sort"
)

// node is one level of the state hierarchy. A node is either internal
// (children only) or a leaf (variable only), never both.
type node struct {
	children map[string]*node
	variable *Variable
}

func (n *node) isLeaf() bool {
	return n.variable != nil
}

func (n *node) clone() *node {
	c := &node{}
	if n.variable != nil {
		v := n.variable.Clone()
		c.variable = &v
	}
	if n.children != nil {
		c.children = make(map[string]*node, len(n.children))
		for seg, child := range n.children {
			c.children[seg] = child.clone()
		}
	}
	return c
}

// Tree is the hierarchical state store shared by every process of an
// experiment. Paths address it uniquely; leaves hold Variables whose
// metadata is fixed after declaration. The Tree itself is not safe for
// concurrent mutation; the scheduler serializes all writes through the
// merge phase and hands processes deep-copied projections.
type Tree struct {
	root *node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{root: &node{}}
}

func (t *Tree) locate(path Path) (*node, bool) {
	n := t.root
	for _, seg := range path {
		child, ok := n.children[seg]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Declare registers a variable at path, merging with any declaration
// already there. Declaring through an existing leaf, or on top of an
// existing internal node, is a schema conflict.
func (t *Tree) Declare(path Path, v Variable) error {
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot declare a variable at the root", ErrInvalidPath)
	}
	n := t.root
	for i, seg := range path {
		if err := ValidateSegment(seg); err != nil {
			return err
		}
		if n.isLeaf() {
			return fmt.Errorf("%w: %s is a variable, not a subtree", ErrSchemaConflict, Path(path[:i]))
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}
	if len(n.children) > 0 {
		return fmt.Errorf("%w: %s is a subtree, not a variable", ErrSchemaConflict, path)
	}
	decl := v.Clone()
	decl.Value = NormalizeValue(decl.Value)
	if n.variable == nil {
		n.variable = &decl
		return nil
	}
	merged, err := MergeVariables(*n.variable, decl)
	if err != nil {
		return fmt.Errorf("at %s: %w", path, err)
	}
	n.variable = &merged
	return nil
}

// Redeclare is Declare for subtrees that already carry state: the current
// value always wins over the declared default, while metadata still merges
// under the usual conflict rules. The scheduler uses it when wiring fresh
// process instances onto a daughter after division or onto restored state.
func (t *Tree) Redeclare(path Path, v Variable) error {
	if n, ok := t.locate(path); ok && n.isLeaf() {
		v = v.Clone()
		v.Value = nil
	}
	return t.Declare(path, v)
}

// Has reports whether path addresses a declared variable or subtree.
func (t *Tree) Has(path Path) bool {
	_, ok := t.locate(path)
	return ok
}

// Value returns a deep copy of the value at path.
func (t *Tree) Value(path Path) (any, bool) {
	n, ok := t.locate(path)
	if !ok || !n.isLeaf() {
		return nil, false
	}
	return CloneValue(n.variable.Value), true
}

// Variable returns a copy of the full declaration at path.
func (t *Tree) Variable(path Path) (Variable, bool) {
	n, ok := t.locate(path)
	if !ok || !n.isLeaf() {
		return Variable{}, false
	}
	return n.variable.Clone(), true
}

// SetValue overwrites the value at an already-declared path, bypassing the
// updater. Snapshot restore and test setup use it; processes never do.
func (t *Tree) SetValue(path Path, value any) error {
	n, ok := t.locate(path)
	if !ok || !n.isLeaf() {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	n.variable.Value = NormalizeValue(CloneValue(value))
	return nil
}

// Apply combines an update value into the variable at path using its
// declared updater, or the override when one is given. Violations are
// attributed to the writing process.
func (t *Tree) Apply(path Path, value any, override Updater, process string) error {
	n, ok := t.locate(path)
	if !ok || !n.isLeaf() {
		return fmt.Errorf("process %q: %w: %s", process, ErrPathNotFound, path)
	}
	up := n.variable.EffectiveUpdater()
	if override != UpdaterUnspecified {
		up = override
	}
	next, err := up.Apply(n.variable.Value, NormalizeValue(value))
	if err != nil {
		return fmt.Errorf("process %q at %s: %w", process, path, err)
	}
	if n.variable.NonNegative && isNegative(next) {
		return fmt.Errorf("process %q drove %s to %v: %w", process, path, next, ErrNegativeValue)
	}
	n.variable.Value = next
	return nil
}

// Project builds the read-only view a process sees for one invocation:
// every schema variable resolved through the topology and deep-copied.
// A declared variable missing from the tree reads as its declared initial
// value, so processes are self-initializing on fresh subtrees.
func (t *Tree) Project(schema Schema, topo Topology) (View, error) {
	values := make(map[string]map[string]any, len(schema))
	for port, vars := range schema {
		base, err := topo.Resolve(port)
		if err != nil {
			return View{}, err
		}
		pv := make(map[string]any, len(vars))
		for name, decl := range vars {
			if n, ok := t.locate(base.Child(name)); ok && n.isLeaf() {
				pv[name] = CloneValue(n.variable.Value)
			} else {
				pv[name] = CloneValue(NormalizeValue(decl.Value))
			}
		}
		values[port] = pv
	}
	return NewView(values), nil
}

// InsertSubtree grafts a deep copy of sub at path. The target must not
// already exist.
func (t *Tree) InsertSubtree(path Path, sub *Tree) error {
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot insert at the root", ErrInvalidPath)
	}
	n := t.root
	for _, seg := range path[:len(path)-1] {
		if n.isLeaf() {
			return fmt.Errorf("%w: %s is a variable", ErrSchemaConflict, path)
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[seg]
		if !ok {
			child = &node{}
			n.children[seg] = child
		}
		n = child
	}
	last := path.Base()
	if _, exists := n.children[last]; exists {
		return fmt.Errorf("%w: %s already exists", ErrStructuralConflict, path)
	}
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	n.children[last] = sub.root.clone()
	return nil
}

// RemoveSubtree detaches the node at path and everything under it.
func (t *Tree) RemoveSubtree(path Path) error {
	if path.IsRoot() {
		return fmt.Errorf("%w: cannot remove the root", ErrInvalidPath)
	}
	parent, ok := t.locate(path.Parent())
	if !ok {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	last := path.Base()
	if _, ok := parent.children[last]; !ok {
		return fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	delete(parent.children, last)
	return nil
}

// Subtree returns a deep copy of the tree rooted at path.
func (t *Tree) Subtree(path Path) (*Tree, error) {
	n, ok := t.locate(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	return &Tree{root: n.clone()}, nil
}

// DivideSubtree produces the two daughter trees of the subtree at path by
// running every leaf's divider. The parent tree is not modified; the
// scheduler removes the parent and inserts the daughters as one structural
// step.
func (t *Tree) DivideSubtree(path Path) (*Tree, *Tree, error) {
	src, err := t.Subtree(path)
	if err != nil {
		return nil, nil, err
	}
	first := src
	second := src.Clone()
	for _, leaf := range src.Leaves() {
		fn, _ := first.locate(leaf)
		sn, _ := second.locate(leaf)
		pair, err := fn.variable.EffectiveDivider().Divide(fn.variable.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("dividing %s at %s: %w", path, leaf, err)
		}
		fn.variable.Value = pair[0]
		sn.variable.Value = pair[1]
	}
	return first, second, nil
}

// Clone returns a deep copy of the whole tree. The scheduler clones before
// merging so a failed cycle leaves no trace.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone()}
}

// Leaves returns the paths of all variables in sorted order.
func (t *Tree) Leaves() []Path {
	var out []Path
	t.walk(Path{}, t.root, func(p Path, _ *Variable) {
		out = append(out, p)
	})
	return out
}

func (t *Tree) walk(prefix Path, n *node, fn func(Path, *Variable)) {
	if n.isLeaf() {
		fn(prefix, n.variable)
		return
	}
	segs := make([]string, 0, len(n.children))
	for seg := range n.children {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	for _, seg := range segs {
		t.walk(prefix.Child(seg), n.children[seg], fn)
	}
}

// Flatten returns every variable's value keyed by canonical path string.
func (t *Tree) Flatten() map[string]any {
	out := make(map[string]any)
	t.walk(Path{}, t.root, func(p Path, v *Variable) {
		out[p.String()] = CloneValue(v.Value)
	})
	return out
}

// Emitted returns the values of emit-marked variables keyed by canonical
// path string. This is what emitters receive each cycle.
func (t *Tree) Emitted() map[string]any {
	out := make(map[string]any)
	t.walk(Path{}, t.root, func(p Path, v *Variable) {
		if v.Emit {
			out[p.String()] = CloneValue(v.Value)
		}
	})
	return out
}

// Nested returns the tree's values as nested maps, the shape snapshots
// serialize.
func (t *Tree) Nested() map[string]any {
	return t.nested(t.root)
}

func (t *Tree) nested(n *node) map[string]any {
	out := make(map[string]any, len(n.children))
	for seg, child := range n.children {
		if child.isLeaf() {
			out[seg] = CloneValue(child.variable.Value)
		} else {
			out[seg] = t.nested(child)
		}
	}
	return out
}

// SetNested writes values from a nested map onto already-declared
// variables, as when resuming from a snapshot. Paths in the map that are
// not declared in the tree are an error: resume requires composing the
// same structure first.
func (t *Tree) SetNested(state map[string]any) error {
	return t.setNested(Path{}, state)
}

func (t *Tree) setNested(prefix Path, state map[string]any) error {
	for seg, value := range state {
		if err := ValidateSegment(seg); err != nil {
			return err
		}
		p := prefix.Child(seg)
		n, ok := t.locate(p)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPathNotFound, p)
		}
		if n.isLeaf() {
			n.variable.Value = NormalizeValue(CloneValue(value))
			continue
		}
		nested, isMap := value.(map[string]any)
		if !isMap {
			return fmt.Errorf("%w: %s is a subtree, got %T", ErrSchemaViolation, p, value)
		}
		if err := t.setNested(p, nested); err != nil {
			return err
		}
	}
	return nil
}
