package domain

import "sort"

// Schema is what a process declares about the state it touches: for each
// port, the variables it reads or writes with their initial values and
// combination metadata. A schema says nothing about where those ports live
// in the tree; that is the Topology's job.
type Schema map[string]map[string]Variable

// Ports returns the schema's port names in sorted order.
func (s Schema) Ports() []string {
	ports := make([]string, 0, len(s))
	for p := range s {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	return ports
}

// Clone returns an independent copy of the schema.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for port, vars := range s {
		cv := make(map[string]Variable, len(vars))
		for name, v := range vars {
			cv[name] = v.Clone()
		}
		out[port] = cv
	}
	return out
}

// Validate checks every port and variable name for path-safety, so that
// separator characters are rejected at declaration time rather than
// surfacing later as mis-addressed tree paths.
func (s Schema) Validate() error {
	for port, vars := range s {
		if err := ValidateSegment(port); err != nil {
			return err
		}
		for name := range vars {
			if err := ValidateSegment(name); err != nil {
				return err
			}
		}
	}
	return nil
}
