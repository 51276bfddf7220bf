package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/pkg/adapters/process"
	"github.com/aretw0/microcosm/pkg/domain"
)

// TestExternalProcess_EndToEnd runs a model that lives outside the Go
// module: the dilution fixture under tests/fixtures, spawned once per
// cycle with the port values on stdin. It removes one molecule of every
// positive species, so the counts are exact.
func TestExternalProcess_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("compiles a fixture with the go tool")
	}

	p, err := process.New(process.Config{
		Command: "go",
		Args:    []string{"run", "./fixtures/external/dilution"},
		Schema: map[string]map[string]process.VariableSpec{
			"molecules": {
				"X": {Value: 10, NonNegative: true, Emit: true},
				"Y": {Value: 3, NonNegative: true, Emit: true},
			},
		},
	})
	require.NoError(t, err)

	exp := microcosm.New()
	topo := domain.Topology{"molecules": domain.MustPath("beaker")}
	require.NoError(t, exp.AddProcess("dilute", p, topo))

	require.NoError(t, exp.Run(context.Background(), 5))

	state := exp.Snapshot("final").State
	assert.Equal(t, int64(5), asInt64(t, portValue(t, state, "beaker", "X")))
	assert.Equal(t, int64(0), asInt64(t, portValue(t, state, "beaker", "Y")),
		"Y empties after three cycles and stays put")
}
