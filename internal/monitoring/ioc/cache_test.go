package ioc

import (
	"context"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCacheGetOrCreate(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	src.templates[100] = stubHandle{cpu: []float64{0, 4}}
	cache := NewHandleCache(src)

	first, err := cache.GetOrCreate(ctx, 100, 1000)
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, 100, 1000)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, src.opened[100], 1)
	assert.Equal(t, 1, cache.Len())
}

func TestHandleCacheUnknownCreateTimeKeepsHandle(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	src.templates[7] = stubHandle{}
	cache := NewHandleCache(src)

	first, err := cache.GetOrCreate(ctx, 7, 0)
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, 7, 5000)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, src.opened[7], 1)
}

func TestHandleCachePidReuse(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	src.templates[7] = stubHandle{}
	cache := NewHandleCache(src)

	first, err := cache.GetOrCreate(ctx, 7, 1000)
	require.NoError(t, err)
	second, err := cache.GetOrCreate(ctx, 7, 2000)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(7), first.PID())
	assert.Equal(t, int32(7), second.PID())
	assert.Len(t, src.opened[7], 2)
	assert.Equal(t, 1, cache.Len())
}

func TestHandleCacheOpenError(t *testing.T) {
	cache := NewHandleCache(newStubSource())

	h, err := cache.GetOrCreate(context.Background(), 42, 0)
	assert.ErrorIs(t, err, process.ErrorProcessNotRunning)
	assert.Nil(t, h)
	assert.False(t, cache.Has(42))
	assert.Equal(t, 0, cache.Len())
}

func TestHandleCachePrune(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	cache := NewHandleCache(src)
	for _, pid := range []int32{1, 2, 3} {
		src.templates[pid] = stubHandle{}
		_, err := cache.GetOrCreate(ctx, pid, 0)
		require.NoError(t, err)
	}

	removed := cache.Prune(map[int32]struct{}{1: {}, 3: {}})

	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []int32{1, 3}, cache.PIDs())
	assert.True(t, cache.Has(1))
	assert.False(t, cache.Has(2))
	assert.True(t, cache.Has(3))
}

func TestHandleCachePruneEmptyFoundSet(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	src.templates[1] = stubHandle{}
	cache := NewHandleCache(src)
	_, err := cache.GetOrCreate(ctx, 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Prune(map[int32]struct{}{}))
	assert.Equal(t, 0, cache.Len())
}

func TestHandleCacheReset(t *testing.T) {
	ctx := context.Background()
	src := newStubSource()
	src.templates[1] = stubHandle{}
	cache := NewHandleCache(src)
	_, err := cache.GetOrCreate(ctx, 1, 0)
	require.NoError(t, err)

	cache.Reset()

	assert.Equal(t, 0, cache.Len())
	_, err = cache.GetOrCreate(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, src.opened[1], 2)
}
