// Package validator lints experiment definitions before anything runs. It
// goes further than the structural Definition.Validate: with a catalog in
// hand it dry-constructs every process, reports config problems field by
// field, and flags legal but suspicious setups as warnings.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/schema"
)

// Severity classifies an issue. Errors would stop Materialize; warnings
// would not, but usually mean the definition does not do what its author
// intended.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding. Process is empty for definition-level findings.
type Issue struct {
	Severity Severity
	Process  string
	Message  string
}

func (i Issue) String() string {
	if i.Process == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: process %q: %s", i.Severity, i.Process, i.Message)
}

// Result collects every issue found in one pass, so a definition with
// three broken processes reports all three instead of stopping at the
// first.
type Result struct {
	Issues []Issue
}

// Errors counts the error-severity issues.
func (r *Result) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts the warning-severity issues.
func (r *Result) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// OK reports whether the definition is runnable. Warnings alone do not
// fail it.
func (r *Result) OK() bool {
	return r.Errors() == 0
}

// Err folds the error-severity issues into a single error, or nil when
// the definition is runnable.
func (r *Result) Err() error {
	var msgs []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.String())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d problems:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

func (r *Result) errorf(process, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Process: process, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warnf(process, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarning, Process: process, Message: fmt.Sprintf(format, args...)})
}

// ValidateDefinition lints a definition against a catalog. It never
// returns early: every process is checked even when earlier ones fail.
func ValidateDefinition(def composition.Definition, catalog *composition.Catalog) *Result {
	res := &Result{}

	if def.Name == "" {
		res.errorf("", "definition needs a name")
	}
	if def.Horizon <= 0 {
		res.errorf("", "horizon must be positive, got %v", def.Horizon)
	}
	if len(def.Processes) == 0 {
		res.errorf("", "no processes")
		return res
	}

	known := make(map[string]bool)
	for _, k := range catalog.Kinds() {
		known[k] = true
	}

	seen := make(map[string]bool, len(def.Processes))
	emitting := false
	constructed := 0
	for _, spec := range def.Processes {
		name := spec.Name
		if name == "" {
			res.errorf("", "process without a name")
		}
		if seen[name] {
			res.errorf(name, "duplicate process name")
		}
		seen[name] = true

		if spec.Kind == "" {
			res.errorf(name, "no kind")
			continue
		}
		if !known[spec.Kind] {
			res.errorf(name, "unknown kind %q (have %v)", spec.Kind, catalog.Kinds())
			continue
		}

		clean := true
		if s := catalog.ConfigSchema(spec.Kind); s != nil {
			if err := schema.Validate(s, spec.Config); err != nil {
				fieldErrs := schema.ValidationErrors(err)
				if len(fieldErrs) == 0 {
					fieldErrs = []error{err}
				}
				for _, fe := range fieldErrs {
					res.errorf(name, "config: %v", fe)
				}
				clean = false
			}
		}
		for _, port := range sortedKeys(spec.Topology) {
			if _, err := domain.ParsePath(spec.Topology[port]); err != nil {
				res.errorf(name, "port %q: %v", port, err)
				clean = false
			}
		}
		if !clean {
			continue
		}

		proc, _, err := catalog.Construct(spec)
		if err != nil {
			res.errorf(name, "%v", err)
			continue
		}
		constructed++

		if ts := proc.TimeStep(); ts > 0 && def.Horizon > 0 && ts > def.Horizon {
			res.warnf(name, "time step %v exceeds the horizon %v, so the process never runs", ts, def.Horizon)
		}
		declared := make(map[string]bool)
		for _, port := range proc.Schema().Ports() {
			declared[port] = true
		}
		for _, port := range sortedKeys(spec.Topology) {
			if !declared[port] {
				res.warnf(name, "port %q is bound but the process does not declare it", port)
			}
		}
		for _, vars := range proc.Schema() {
			for _, v := range vars {
				if v.Emit {
					emitting = true
				}
			}
		}
	}

	if constructed == len(def.Processes) && !emitting {
		res.warnf("", "no variable is marked for emission, so runs produce empty samples")
	}

	return res
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
