package tests

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/aretw0/microcosm/pkg/processes"
)

// writeExperiment drops a definition document into dir for the loam and
// file loaders to pick up.
func writeExperiment(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// doublingCell builds a growth+division composite: mass doubles every
// time unit and the cell divides on the cycle after it crosses the
// threshold. Division halves the mass, so the population doubles once
// per unit while every agent's mass keeps cycling between 1000 and 2000.
func doublingCell(t *testing.T, threshold float64) ports.Composite {
	t.Helper()

	grow, err := processes.NewGrowth(processes.GrowthConfig{Rate: math.Ln2, InitialMass: 1000})
	require.NoError(t, err)
	split, err := processes.NewDivision(processes.DivisionConfig{Threshold: threshold})
	require.NoError(t, err)

	comp, err := composition.New().
		Add("grow", composition.Static(grow)).Bind("global").
		Add("fission", composition.Static(split)).Bind("trigger").Bind("agent").
		Build()
	require.NoError(t, err)
	return comp
}

// portValue digs a leaf out of a nested snapshot state.
func portValue(t *testing.T, state map[string]any, segments ...string) any {
	t.Helper()
	var current any = state
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		require.True(t, ok, "expected a map at %q, got %T", seg, current)
		current, ok = m[seg]
		require.True(t, ok, "missing %q in %v", seg, m)
	}
	return current
}

func asInt64(t *testing.T, v any) int64 {
	t.Helper()
	n, ok := v.(int64)
	require.True(t, ok, "expected int64, got %T (%v)", v, v)
	return n
}
