package console_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/microcosm/pkg/adapters/console"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

func TestConsoleEmitter_Contract(t *testing.T) {
	var buf bytes.Buffer
	ports.RunEmitterContract(t, console.NewEmitter(&buf))
}

func TestConsoleEmitter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	em := console.NewEmitter(&buf)

	err := em.Emit(context.Background(), domain.Sample{
		Time: 2.5,
		Values: map[string]any{
			"agents/cell/mass": 1012.5,
			"agents/cell/atp":  int64(38),
		},
	})
	require.NoError(t, err)

	// A bytes.Buffer is never a TTY, so output is plain and path-sorted.
	assert.Equal(t, "t=2.5 agents/cell/atp=38 agents/cell/mass=1012.5\n", buf.String())
}
