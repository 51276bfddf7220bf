package processes

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/microcosm/pkg/domain"
)

// TimelineEntry forces values onto the tree at a scheduled time. Values
// are applied with a set override, so they replace whatever the regular
// processes computed that cycle.
type TimelineEntry struct {
	Time   float64                   `mapstructure:"time"`
	Values map[string]map[string]any `mapstructure:"values"`
}

// TimelineConfig configures a Timeline process.
type TimelineConfig struct {
	Entries  []TimelineEntry `mapstructure:"entries"`
	TimeStep float64         `mapstructure:"time_step"`
}

// Timeline drives an experiment with predetermined inputs. It also owns
// the canonical clock variable: each invocation accumulates its timestep
// into global/time, and entries fire in the cycle where the accumulated
// time first reaches them. Firing is derived from the clock value alone,
// never from hidden position state, so a restored snapshot resumes without
// refiring past entries.
type Timeline struct {
	cfg TimelineConfig
}

// NewTimeline validates the configuration and returns the process.
// Entries are sorted by time; among entries firing in the same cycle the
// later one wins for any variable they both touch.
func NewTimeline(cfg TimelineConfig) (*Timeline, error) {
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("negative time step %v", cfg.TimeStep)
	}
	if cfg.TimeStep == 0 {
		cfg.TimeStep = 1
	}
	for i, e := range cfg.Entries {
		if e.Time < 0 {
			return nil, fmt.Errorf("entry %d: negative time %v", i, e.Time)
		}
		if len(e.Values) == 0 {
			return nil, fmt.Errorf("entry %d at t=%v: no values", i, e.Time)
		}
		for port := range e.Values {
			if port == "global" {
				return nil, fmt.Errorf("entry %d: the global port is reserved for the clock", i)
			}
		}
	}
	entries := make([]TimelineEntry, len(cfg.Entries))
	copy(entries, cfg.Entries)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
	cfg.Entries = entries
	return &Timeline{cfg: cfg}, nil
}

// Schema declares the clock plus one port per forced target.
func (tl *Timeline) Schema() domain.Schema {
	schema := domain.Schema{
		"global": {"time": domain.Variable{Value: float64(0)}},
	}
	for _, e := range tl.cfg.Entries {
		for port, vars := range e.Values {
			if schema[port] == nil {
				schema[port] = make(map[string]domain.Variable)
			}
			for name := range vars {
				if _, ok := schema[port][name]; !ok {
					schema[port][name] = domain.Variable{}
				}
			}
		}
	}
	return schema
}

// TimeStep returns the configured interval.
func (tl *Timeline) TimeStep() float64 {
	return tl.cfg.TimeStep
}

// Next advances the clock and fires every entry whose time falls inside
// the window (now-timestep, now].
func (tl *Timeline) Next(_ context.Context, timestep float64, view domain.View) (domain.Update, error) {
	if timestep <= 0 {
		return domain.Update{}, fmt.Errorf("timeline needs a positive timestep, got %v", timestep)
	}
	now := view.Float("global", "time")

	var update domain.Update
	update.Put("global", "time", domain.Entry{Value: timestep})

	for _, e := range tl.cfg.Entries {
		if e.Time > now {
			break
		}
		if e.Time <= now-timestep {
			continue
		}
		for port, vars := range e.Values {
			for name, value := range vars {
				update.Put(port, name, domain.Entry{Value: value, Updater: domain.UpdaterSet})
			}
		}
	}
	return update, nil
}
