package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/logging"
	"github.com/aretw0/microcosm/pkg/adapters/memory"
	"github.com/aretw0/microcosm/pkg/composition"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/session"
)

func testDefinition() composition.Definition {
	return composition.Definition{
		Name:    "cycle",
		Horizon: 4,
		Processes: []composition.ProcessSpec{
			{
				Name:     "grow",
				Kind:     "growth",
				Config:   map[string]any{"rate": 0.1},
				Topology: map[string]string{"global": "agents/cell"},
			},
		},
	}
}

func newTestExperiment(t *testing.T) *microcosm.Experiment {
	t.Helper()
	exp, err := microcosm.FromDefinition(testDefinition(), nil)
	require.NoError(t, err)
	return exp
}

func TestHydrateExperiment_InitializesFreshRuns(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewManager(memory.NewStore())
	exp := newTestExperiment(t)

	resumed, err := hydrateExperiment(ctx, exp, sessions, "run-a", logging.NewNop(), true)
	require.NoError(t, err)
	assert.False(t, resumed)

	// The initial state is persisted right away to reserve the run ID.
	snap, err := sessions.Load(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Time)
}

func TestHydrateExperiment_ResumesACheckpoint(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewManager(memory.NewStore())

	first := newTestExperiment(t)
	_, err := hydrateExperiment(ctx, first, sessions, "run-a", logging.NewNop(), true)
	require.NoError(t, err)
	require.NoError(t, first.Run(ctx, 2))
	require.NoError(t, sessions.Checkpoint(ctx, "run-a", first.Snapshot("run-a")))

	second := newTestExperiment(t)
	resumed, err := hydrateExperiment(ctx, second, sessions, "run-a", logging.NewNop(), true)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, 2.0, second.Now())
	assert.Equal(t, first.Snapshot("run-a").State, second.Snapshot("run-a").State)
}

func TestHydrateExperiment_DiscardsStaleCheckpoints(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	// A checkpoint from an older definition whose paths no longer exist.
	require.NoError(t, store.Save(ctx, &domain.Snapshot{
		ID:    "run-a",
		Time:  3,
		State: map[string]any{"organelles": map[string]any{"ribosome": 2.0}},
	}))

	sessions := session.NewManager(store)
	exp := newTestExperiment(t)

	resumed, err := hydrateExperiment(ctx, exp, sessions, "run-a", logging.NewNop(), true)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, 0.0, exp.Now())

	_, err = sessions.Load(ctx, "run-a")
	assert.Error(t, err, "stale checkpoint should have been cleared")
}
