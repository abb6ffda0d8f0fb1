package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/pkg/cache"
	"AccelStream/pkg/logger"
)

func TestSnapshotPublish(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Register("x_axis")
	for i := 0; i < 5; i++ {
		h.AddDataPointAt("x_axis", float64(i), time.Unix(1700000000+int64(i), 0))
	}

	mc := cache.NewMemoryCache()
	defer mc.Close()
	p := NewSnapshotPublisher(h, mc, newFakeMetrics(), logger.Nop(), time.Second, time.Minute)
	require.NoError(t, p.Publish(context.Background()))

	var stats models.PerformanceStats
	require.NoError(t, mc.Get(context.Background(), SnapshotStatsKey, &stats))
	assert.Equal(t, uint64(5), stats.TotalPoints)

	var dd models.DisplayData
	require.NoError(t, mc.Get(context.Background(), SnapshotDisplayKey("x_axis"), &dd))
	assert.Equal(t, "x_axis", dd.Stream)
	assert.Equal(t, 5, dd.Len())
}

func TestSnapshotLoop(t *testing.T) {
	h, _ := newTestHandler(t)
	h.AddDataPointAt("z_axis", 1, time.Unix(1700000000, 0))

	clk := clock.NewMock()
	mc := cache.NewMemoryCache()
	defer mc.Close()
	p := NewSnapshotPublisher(h, mc, newFakeMetrics(), logger.Nop(), 150*time.Millisecond, time.Minute, WithSnapshotClock(clk))

	p.Start(context.Background())
	defer p.Stop()

	assert.Eventually(t, func() bool {
		clk.Add(150 * time.Millisecond)
		ok, _ := mc.Exists(context.Background(), SnapshotDisplayKey("z_axis"))
		return ok
	}, time.Second, 10*time.Millisecond)
}
