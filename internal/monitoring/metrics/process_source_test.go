package metrics

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSourceListsSelf(t *testing.T) {
	ctx := context.Background()
	src := NewProcessSource()

	entries, err := src.Processes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	self := int32(os.Getpid())
	var found bool
	for _, e := range entries {
		if e.PID() != self {
			continue
		}
		found = true

		cmdline, err := e.Cmdline(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, cmdline)

		created, err := e.CreateTime(ctx)
		require.NoError(t, err)
		assert.Greater(t, created, int64(0))
	}
	assert.True(t, found, "own pid not listed")
}

func TestProcessHandleFirstSampleIsBaseline(t *testing.T) {
	ctx := context.Background()
	h, err := NewProcessSource().Open(ctx, int32(os.Getpid()))
	require.NoError(t, err)

	first, err := h.CPUPercent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, first)

	time.Sleep(50 * time.Millisecond)

	second, err := h.CPUPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second, 0.0)

	rss, err := h.RSS(ctx)
	require.NoError(t, err)
	assert.Greater(t, rss, uint64(0))
	assert.Equal(t, int32(os.Getpid()), h.PID())
}

func TestProcessSourceOpenMissingPid(t *testing.T) {
	_, err := NewProcessSource().Open(context.Background(), 1<<30)
	assert.ErrorIs(t, err, process.ErrorProcessNotRunning)
}
