package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"AccelStream/internal/domain/models"
)

type fixedStats models.PerformanceStats

func (f fixedStats) PerformanceStats() models.PerformanceStats { return models.PerformanceStats(f) }

func TestStatsCollector(t *testing.T) {
	c := NewStatsCollector(fixedStats{TotalPoints: 7, Anomalies: 2, AvgDataRate: 12.5, BufferUsage: 6})
	expected := `
# HELP accelstream_handler_buffer_usage Samples currently buffered across all streams
# TYPE accelstream_handler_buffer_usage gauge
accelstream_handler_buffer_usage 6
# HELP accelstream_handler_total_points Points ingested since start or last reset
# TYPE accelstream_handler_total_points gauge
accelstream_handler_total_points 7
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"accelstream_handler_buffer_usage", "accelstream_handler_total_points")
	if err != nil {
		t.Fatal(err)
	}
}
