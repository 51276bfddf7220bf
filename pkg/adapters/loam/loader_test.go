package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm/internal/testutils"
)

const growthDoc = `---
name: exponential-growth
horizon: 10
seed: 42
emitter: console
processes:
  - name: grow
    kind: growth
    config:
      rate: 0.0006
      initial_mass: 1000
    topology:
      global: agents/cell
  - name: divide
    kind: division
    config:
      threshold: 2000
    topology:
      trigger: agents/cell
      agent: agents/cell
---
A single cell grows exponentially and divides at twice its initial mass.`

func newTestLoader(t *testing.T, docs ...core.Document) *Loader {
	t.Helper()
	_, repo := testutils.SetupTestRepo(t)
	testutils.SaveDocs(t, repo, docs...)
	return New(loam.NewTypedRepository[ExperimentMetadata](repo))
}

func TestLoader_Load(t *testing.T) {
	loader := newTestLoader(t, core.Document{ID: "growth.md", Content: growthDoc})
	ctx := context.Background()

	def, err := loader.Load(ctx, "growth")
	require.NoError(t, err)

	assert.Equal(t, "exponential-growth", def.Name)
	assert.Equal(t, 10.0, def.Horizon)
	assert.Equal(t, int64(42), def.Seed)
	assert.Equal(t, "console", def.Emitter)
	assert.Equal(t, "A single cell grows exponentially and divides at twice its initial mass.", def.Description)

	require.Len(t, def.Processes, 2)
	assert.Equal(t, "grow", def.Processes[0].Name)
	assert.Equal(t, "growth", def.Processes[0].Kind)
	assert.Equal(t, "agents/cell", def.Processes[0].Topology["global"])
	assert.Equal(t, "division", def.Processes[1].Kind)
}

func TestLoader_Load_DefaultsNameToDocID(t *testing.T) {
	loader := newTestLoader(t, core.Document{ID: "minimal.md", Content: `---
horizon: 5
processes:
  - name: grow
    kind: growth
    topology:
      global: cell
---
`})

	def, err := loader.Load(context.Background(), "minimal")
	require.NoError(t, err)
	assert.Equal(t, "minimal", def.Name)
}

func TestLoader_Load_RejectsInvalidDefinitions(t *testing.T) {
	loader := newTestLoader(t,
		core.Document{ID: "no-horizon.md", Content: "---\nname: broken\nprocesses:\n  - name: g\n    kind: growth\n---\n"},
		core.Document{ID: "bad-horizon.md", Content: "---\nhorizon: soon\nprocesses:\n  - name: g\n    kind: growth\n---\n"},
	)
	ctx := context.Background()

	_, err := loader.Load(ctx, "no-horizon")
	assert.ErrorContains(t, err, "horizon")

	_, err = loader.Load(ctx, "bad-horizon")
	assert.ErrorContains(t, err, "not numeric")
}

func TestLoader_List_DetectsCollisions(t *testing.T) {
	loader := newTestLoader(t,
		core.Document{ID: "a.md", Content: "---\nname: shared\nhorizon: 1\nprocesses:\n  - name: g\n    kind: growth\n---\n"},
		core.Document{ID: "b.md", Content: "---\nname: shared\nhorizon: 1\nprocesses:\n  - name: g\n    kind: growth\n---\n"},
	)

	_, err := loader.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision")
}

func TestLoader_List(t *testing.T) {
	loader := newTestLoader(t,
		core.Document{ID: "growth.md", Content: growthDoc},
		core.Document{ID: "other.md", Content: "---\nhorizon: 2\nprocesses:\n  - name: g\n    kind: growth\n---\n"},
	)

	names, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"exponential-growth", "other"}, names)
}

func TestLoader_Watch_ClosesOnCancel(t *testing.T) {
	loader := newTestLoader(t, core.Document{ID: "growth.md", Content: growthDoc})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := loader.Watch(ctx)
	require.NoError(t, err)

	cancel()
	for range ch {
		// Drain any events raced in before cancellation.
	}
}
