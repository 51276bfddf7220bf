package domain

// DirectiveKind names a structural change requested by a process.
type DirectiveKind int

const (
	// DirectiveDivide replaces the target subtree with two daughters.
	DirectiveDivide DirectiveKind = iota + 1
	// DirectiveDelete removes the target subtree outright.
	DirectiveDelete
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveDivide:
		return "divide"
	case DirectiveDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Directive asks the scheduler for a structural mutation. The target is
// named through one of the emitting process's ports, so the directive
// stays valid wherever the process is wired; the scheduler resolves it to
// an absolute path through the process's topology.
type Directive struct {
	Kind DirectiveKind

	// Port whose bound path is the subtree to divide or delete.
	Port string

	// DaughterIDs are the segment names of the two daughters on divide.
	// Empty IDs let the engine derive names from the parent's.
	DaughterIDs [2]string
}

// Entry is one variable's worth of update. An unspecified updater defers
// to the variable's declared one; timeline-style overrides set it
// explicitly.
type Entry struct {
	Value   any
	Updater Updater
}

// Update is what a process hands back from one invocation: per-port value
// entries plus any structural directives. It is transient; the scheduler
// consumes it during the merge phase of the invoking cycle and nothing of
// it survives afterwards.
type Update struct {
	Entries    map[string]map[string]Entry
	Directives []Directive
}

// Put records an entry for port/name, allocating lazily so process code
// can build updates incrementally.
func (u *Update) Put(port, name string, e Entry) {
	if u.Entries == nil {
		u.Entries = make(map[string]map[string]Entry)
	}
	if u.Entries[port] == nil {
		u.Entries[port] = make(map[string]Entry)
	}
	u.Entries[port][name] = e
}

// Direct appends a structural directive.
func (u *Update) Direct(d Directive) {
	u.Directives = append(u.Directives, d)
}

// IsZero reports whether the update carries neither entries nor directives.
func (u Update) IsZero() bool {
	return len(u.Entries) == 0 && len(u.Directives) == 0
}
