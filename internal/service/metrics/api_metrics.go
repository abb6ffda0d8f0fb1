package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "accelstream",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of stream API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "accelstream",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by stream API endpoint",
		},
		[]string{"endpoint"},
	)
)

// Register adds the API collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors)
	})
}

// RegisterStats exposes src on the default registry. Registering twice is a no-op.
func RegisterStats(src StatsSource) error {
	err := prometheus.Register(NewStatsCollector(src))
	if _, dup := err.(prometheus.AlreadyRegisteredError); dup {
		return nil
	}
	return err
}
