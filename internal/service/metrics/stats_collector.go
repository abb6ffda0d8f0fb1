package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"AccelStream/internal/domain/models"
)

// StatsSource yields a consistent stats snapshot.
type StatsSource interface {
	PerformanceStats() models.PerformanceStats
}

// StatsCollector exports a StatsSource as gauges, read at scrape time.
type StatsCollector struct {
	src         StatsSource
	totalPoints *prometheus.Desc
	anomalies   *prometheus.Desc
	rate        *prometheus.Desc
	usage       *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

func NewStatsCollector(src StatsSource) *StatsCollector {
	return &StatsCollector{
		src:         src,
		totalPoints: prometheus.NewDesc("accelstream_handler_total_points", "Points ingested since start or last reset", nil, nil),
		anomalies:   prometheus.NewDesc("accelstream_handler_anomalies", "Anomalies detected since start or last reset", nil, nil),
		rate:        prometheus.NewDesc("accelstream_handler_avg_data_rate", "Mean ingestion rate over the recent window in points per second", nil, nil),
		usage:       prometheus.NewDesc("accelstream_handler_buffer_usage", "Samples currently buffered across all streams", nil, nil),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalPoints
	ch <- c.anomalies
	ch <- c.rate
	ch <- c.usage
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.PerformanceStats()
	ch <- prometheus.MustNewConstMetric(c.totalPoints, prometheus.GaugeValue, float64(s.TotalPoints))
	ch <- prometheus.MustNewConstMetric(c.anomalies, prometheus.GaugeValue, float64(s.Anomalies))
	ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, s.AvgDataRate)
	ch <- prometheus.MustNewConstMetric(c.usage, prometheus.GaugeValue, float64(s.BufferUsage))
}
