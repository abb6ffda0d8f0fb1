package stream

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
)

func newTestHandler(t *testing.T, cfg Config) (*Handler, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	h, err := NewHandler(cfg, WithClock(mock))
	require.NoError(t, err)
	return h, mock
}

func TestNewHandlerValidatesConfig(t *testing.T) {
	bad := []Config{
		{BufferSize: 0, DisplayWindow: 1, SmoothingFactor: 0.5, AnomalyThreshold: 3},
		{BufferSize: 10, DisplayWindow: 0, SmoothingFactor: 0.5, AnomalyThreshold: 3},
		{BufferSize: 10, DisplayWindow: 11, SmoothingFactor: 0.5, AnomalyThreshold: 3},
		{BufferSize: 10, DisplayWindow: 5, SmoothingFactor: 0, AnomalyThreshold: 3},
		{BufferSize: 10, DisplayWindow: 5, SmoothingFactor: 1.5, AnomalyThreshold: 3},
		{BufferSize: 10, DisplayWindow: 5, SmoothingFactor: 0.5, AnomalyThreshold: 0},
	}
	for _, cfg := range bad {
		_, err := NewHandler(cfg)
		assert.True(t, errors.Is(err, ErrInvalidConfig), "config %+v", cfg)
	}

	_, err := NewHandler(Config{BufferSize: 10, DisplayWindow: 10, SmoothingFactor: 1, AnomalyThreshold: 0.1})
	assert.NoError(t, err)
}

func TestRegisterIsIdempotent(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	h.Register("x_axis")
	h.AddDataPoint("x_axis", 1)
	h.Register("x_axis")
	h.Register("y_axis")

	assert.Equal(t, []string{"x_axis", "y_axis"}, h.Streams())
	assert.Equal(t, 1, h.Len("x_axis"))
}

func TestAddDataPointAutoRegisters(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	s := h.AddDataPoint("new", 4.2)

	assert.Equal(t, []string{"new"}, h.Streams())
	assert.Equal(t, 4.2, s.RawValue)
	assert.Equal(t, 4.2, s.SmoothedValue)
	assert.False(t, s.IsAnomaly)
	assert.Equal(t, models.QualityNormal, s.QualityScore)
}

func TestSmoothingSequence(t *testing.T) {
	h, _ := newTestHandler(t, Config{BufferSize: 10, DisplayWindow: 10, SmoothingFactor: 0.5, AnomalyThreshold: 3})
	for _, v := range []float64{1, 3, 5} {
		h.AddDataPoint("s", v)
	}
	var got []float64
	for _, s := range h.Samples("s") {
		got = append(got, s.SmoothedValue)
	}
	assert.Equal(t, []float64{1, 2, 3.5}, got)
}

func TestSmoothingAfterEvictionUsesNewest(t *testing.T) {
	h, _ := newTestHandler(t, Config{BufferSize: 2, DisplayWindow: 2, SmoothingFactor: 0.5, AnomalyThreshold: 3})
	for _, v := range []float64{1, 3, 5, 7} {
		h.AddDataPoint("s", v)
	}
	samples := h.Samples("s")
	require.Len(t, samples, 2)
	assert.Equal(t, 5.0, samples[0].RawValue)
	// 1 -> 2 -> 3.5 -> 5.25
	assert.Equal(t, 5.25, samples[1].SmoothedValue)
}

func TestBufferBoundAndEvictionOrder(t *testing.T) {
	h, _ := newTestHandler(t, Config{BufferSize: 3, DisplayWindow: 3, SmoothingFactor: 0.5, AnomalyThreshold: 3})
	for i := 1; i <= 4; i++ {
		h.AddDataPoint("s", float64(i))
	}
	assert.Equal(t, 3, h.Len("s"))
	var raws []float64
	for _, s := range h.Samples("s") {
		raws = append(raws, s.RawValue)
	}
	assert.Equal(t, []float64{2, 3, 4}, raws)

	stats := h.PerformanceStats()
	assert.Equal(t, uint64(4), stats.TotalPoints)
	assert.Equal(t, 3, stats.BufferUsage)
}

func TestAnomalyDetection(t *testing.T) {
	h, _ := newTestHandler(t, Config{BufferSize: 100, DisplayWindow: 50, SmoothingFactor: 0.2, AnomalyThreshold: 3})
	for i := 0; i < 20; i++ {
		v := 1.0
		if i%2 == 1 {
			v = -1
		}
		s := h.AddDataPoint("s", v)
		assert.False(t, s.IsAnomaly, "sample %d inside warm-up", i)
	}

	s := h.AddDataPoint("s", 10)
	assert.True(t, s.IsAnomaly)
	assert.Equal(t, models.QualityAnomalous, s.QualityScore)

	prev := h.Samples("s")[19].SmoothedValue
	assert.InDelta(t, 0.2*10+0.8*prev, s.SmoothedValue, 1e-12)

	stats := h.PerformanceStats()
	assert.Equal(t, uint64(1), stats.Anomalies)
	assert.Equal(t, uint64(21), stats.TotalPoints)
}

func TestAnomalyNeverFiresOnFlatSignal(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	for i := 0; i < 25; i++ {
		h.AddDataPoint("s", 7)
	}
	s := h.AddDataPoint("s", 1000)
	assert.False(t, s.IsAnomaly)
}

func TestDisplayData(t *testing.T) {
	h, mock := newTestHandler(t, Config{BufferSize: 10, DisplayWindow: 5, SmoothingFactor: 1, AnomalyThreshold: 3})

	empty := h.DisplayData("missing")
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.RawValues)
	assert.Empty(t, empty.ProcessedValues)

	base := mock.Now()
	for i := 0; i < 8; i++ {
		h.AddDataPointAt("s", float64(i), base.Add(time.Duration(i)*time.Second))
	}
	d := h.DisplayData("s")
	require.Equal(t, 5, d.Len())
	require.Len(t, d.RawValues, 5)
	require.Len(t, d.ProcessedValues, 5)
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, d.RawValues)
	assert.Equal(t, base.Add(3*time.Second), d.Timestamps[0])
	// alpha=1 makes smoothed == raw; a linear series interpolates to itself.
	for i, v := range d.ProcessedValues {
		assert.InDelta(t, d.RawValues[i], v, 1e-12)
	}
}

func TestDisplayDataShortSeriesPassesThrough(t *testing.T) {
	h, _ := newTestHandler(t, Config{BufferSize: 10, DisplayWindow: 5, SmoothingFactor: 0.5, AnomalyThreshold: 3})
	h.AddDataPoint("s", 1)
	h.AddDataPoint("s", 3)
	d := h.DisplayData("s")
	assert.Equal(t, []float64{1, 2}, d.ProcessedValues)
}

func TestPerformanceStatsEmpty(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	assert.Equal(t, models.PerformanceStats{}, h.PerformanceStats())
}

func TestDataRate(t *testing.T) {
	h, mock := newTestHandler(t, DefaultConfig())

	mock.Add(500 * time.Millisecond)
	h.AddDataPoint("s", 1) // 2/s
	mock.Add(250 * time.Millisecond)
	h.AddDataPoint("s", 1) // 4/s
	h.AddDataPoint("s", 1) // no elapsed time, not counted

	stats := h.PerformanceStats()
	assert.InDelta(t, 3.0, stats.AvgDataRate, 1e-9)
	assert.Equal(t, uint64(3), stats.TotalPoints)
}

func TestReset(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig())
	h.Register("idle")
	for i := 0; i < 5; i++ {
		h.AddDataPoint("s", float64(i))
	}
	h.Reset()

	stats := h.PerformanceStats()
	assert.Equal(t, uint64(0), stats.TotalPoints)
	assert.Equal(t, uint64(0), stats.Anomalies)
	assert.Equal(t, 0, stats.BufferUsage)
	assert.Equal(t, []string{"idle", "s"}, h.Streams())
	assert.Equal(t, 0, h.DisplayData("s").Len())

	// smoothing bootstraps again after a reset
	s := h.AddDataPoint("s", 42)
	assert.Equal(t, 42.0, s.SmoothedValue)
}

func TestExportOrderAndFields(t *testing.T) {
	h, mock := newTestHandler(t, DefaultConfig())
	h.Register("y_axis")
	h.AddDataPoint("x_axis", 1)
	mock.Add(time.Second)
	h.AddDataPoint("y_axis", 2)
	h.AddDataPoint("x_axis", 3)

	recs := h.Export()
	require.Len(t, recs, 3)
	assert.Equal(t, "y_axis", recs[0].Stream)
	assert.Equal(t, 2.0, recs[0].RawValue)
	assert.Equal(t, "x_axis", recs[1].Stream)
	assert.Equal(t, 1.0, recs[1].RawValue)
	assert.Equal(t, 3.0, recs[2].RawValue)
	assert.InDelta(t, 1.3, recs[2].SmoothedValue, 1e-12) // 0.15*3 + 0.85*1
	assert.Equal(t, models.QualityNormal, recs[2].QualityScore)
}

func TestConcurrentIngestKeepsStatsConsistent(t *testing.T) {
	h, err := NewHandler(Config{BufferSize: 10000, DisplayWindow: 100, SmoothingFactor: 0.2, AnomalyThreshold: 3})
	require.NoError(t, err)

	const writers, perWriter = 4, 500
	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan models.PerformanceStats, 1)

	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := h.PerformanceStats()
			if int(st.TotalPoints) != st.BufferUsage {
				select {
				case torn <- st:
				default:
				}
			}
			d := h.DisplayData("s0")
			if len(d.RawValues) != len(d.ProcessedValues) || len(d.RawValues) != len(d.Timestamps) {
				select {
				case torn <- st:
				default:
				}
			}
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			name := []string{"s0", "s1"}[w%2]
			for i := 0; i < perWriter; i++ {
				h.AddDataPoint(name, float64(i%7))
			}
		}(w)
	}
	wg.Wait()
	close(stop)

	select {
	case st := <-torn:
		t.Fatalf("observed inconsistent snapshot: %+v", st)
	default:
	}
	st := h.PerformanceStats()
	assert.Equal(t, uint64(writers*perWriter), st.TotalPoints)
	assert.Equal(t, writers*perWriter, st.BufferUsage)
}
