package domain

import "time"

// Snapshot is a serializable capture of an experiment: the simulated time,
// the full nested state, and the wiring of every process at capture time.
// Restoring needs the same composition; the topology is carried for
// inspection and graph rendering, not to rebuild processes.
type Snapshot struct {
	ID       string                       `json:"id"`
	Time     float64                      `json:"time"`
	State    map[string]any               `json:"state"`
	Topology map[string]map[string]string `json:"topology,omitempty"`
	SavedAt  time.Time                    `json:"saved_at"`
}

// Sample is one cycle's worth of emitted observations: the cycle time and
// the values of every emit-marked variable, keyed by canonical path string.
type Sample struct {
	Time   float64        `json:"time"`
	Values map[string]any `json:"values"`
}

// Clone returns an independent copy of the sample.
func (s Sample) Clone() Sample {
	return Sample{Time: s.Time, Values: CloneValue(s.Values).(map[string]any)}
}
