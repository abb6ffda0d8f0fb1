package cache

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Stream string  `json:"stream"`
	Value  float64 `json:"value"`
}

func TestMemoryCacheRoundTripsJSON(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "p", point{"x_axis", 1.5}, time.Minute))
	var got point
	require.NoError(t, mc.Get(ctx, "p", &got))
	assert.Equal(t, point{"x_axis", 1.5}, got)

	require.NoError(t, mc.Set(ctx, "s", "plain", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	clk := clock.NewMock()
	mc := NewMemoryCacheWithClock(clk)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.MSet(ctx, map[string]interface{}{"a": 1, "b": 2}, 5*time.Second))
	ok, _ := mc.Exists(ctx, "a")
	assert.True(t, ok)

	clk.Add(5 * time.Second)
	ok, _ = mc.Exists(ctx, "a", "b")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	clk := clock.NewMock()
	mc := NewMemoryCacheWithClock(clk, WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, 0)
	clk.Add(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, 0)
	clk.Add(time.Millisecond)
	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clk.Add(time.Millisecond)
	_ = mc.Set(ctx, "c", 3, 0)

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
}

func TestMemoryCacheLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "lock:export", time.Minute)
	assert.True(t, ok)
	ok, _ = mc.TryLock(ctx, "lock:export", time.Minute)
	assert.False(t, ok)
	require.NoError(t, mc.Unlock(ctx, "lock:export"))
	ok, _ = mc.TryLock(ctx, "lock:export", time.Minute)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "accelstream:snapshot:stats", Key("accelstream", "snapshot", "", "stats"))
}
