package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samples   *prometheus.CounterVec
	anomalies *prometheus.CounterVec
	lastValue *prometheus.GaugeVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		samples: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accelstream_samples_ingested_total",
				Help: "Total number of samples ingested per stream",
			},
			[]string{"stream"},
		),
		anomalies: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accelstream_anomalies_total",
				Help: "Total number of samples flagged as anomalies per stream",
			},
			[]string{"stream"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "accelstream_last_value",
				Help: "Last raw value ingested for a stream",
			},
			[]string{"stream"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accelstream_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accelstream_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSample records one ingested sample.
func (r *Recorder) RecordSample(stream string, value float64, anomaly bool) {
	r.samples.WithLabelValues(stream).Inc()
	r.lastValue.WithLabelValues(stream).Set(value)
	if anomaly {
		r.anomalies.WithLabelValues(stream).Inc()
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
