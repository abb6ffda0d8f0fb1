package stream

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"AccelStream/internal/domain/models"
	"AccelStream/internal/domain/service"
	"AccelStream/internal/services/features"
)

var _ service.StreamEngine = (*Handler)(nil)

// Handler owns every stream buffer and the throughput tracker behind one lock.
//
// Every exported method takes the lock exactly once. Readers share it, so a
// DisplayData or PerformanceStats call sees the state between two whole
// AddDataPoint calls and never a partial update. Methods suffixed Locked
// expect the caller to hold the lock.
type Handler struct {
	mu      sync.RWMutex
	cfg     Config
	clock   clock.Clock
	streams map[string]*Ring[models.Sample]
	order   []string
	tracker *Tracker
}

type Option func(*Handler)

// WithClock sets the time source used for default timestamps and rates.
func WithClock(c clock.Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithStreams pre-registers streams.
func WithStreams(names ...string) Option {
	return func(h *Handler) {
		for _, n := range names {
			h.registerLocked(n)
		}
	}
}

func NewHandler(cfg Config, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Handler{
		cfg:     cfg,
		clock:   clock.New(),
		streams: make(map[string]*Ring[models.Sample]),
	}
	for _, o := range opts {
		o(h)
	}
	h.tracker = NewTracker(h.clock.Now())
	return h, nil
}

func (h *Handler) Config() Config { return h.cfg }

// Register creates an empty stream. Registering an existing name is a no-op.
func (h *Handler) Register(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.registerLocked(name)
}

func (h *Handler) registerLocked(name string) *Ring[models.Sample] {
	if r, ok := h.streams[name]; ok {
		return r
	}
	r := NewRing[models.Sample](h.cfg.BufferSize)
	h.streams[name] = r
	h.order = append(h.order, name)
	return r
}

// AddDataPoint ingests value into stream name stamped with the current time.
func (h *Handler) AddDataPoint(name string, value float64) models.Sample {
	return h.AddDataPointAt(name, value, time.Time{})
}

// AddDataPointAt ingests value with timestamp ts; a zero ts means now.
// Unknown streams are registered on first use. The stored sample is returned.
func (h *Handler) AddDataPointAt(name string, value float64, ts time.Time) models.Sample {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	if ts.IsZero() {
		ts = now
	}

	buf := h.registerLocked(name)
	anomaly := h.detectLocked(buf, value)

	prev, hasPrev := buf.Last()
	sample := models.Sample{
		Timestamp:     ts,
		RawValue:      value,
		SmoothedValue: features.Smooth(prev.SmoothedValue, hasPrev, value, h.cfg.SmoothingFactor),
		IsAnomaly:     anomaly,
		QualityScore:  models.QualityFor(anomaly),
	}
	buf.Push(sample)
	h.tracker.Observe(now, anomaly)
	return sample
}

func (h *Handler) detectLocked(buf *Ring[models.Sample], value float64) bool {
	if buf.Len() < features.AnomalyWindow {
		return false
	}
	prior := buf.Tail(features.AnomalyWindow)
	raw := make([]float64, len(prior))
	for i, s := range prior {
		raw[i] = s.RawValue
	}
	return features.DetectAnomaly(raw, value, h.cfg.AnomalyThreshold)
}

// DisplayData returns the newest DisplayWindow samples of name with the
// smoothed column passed through the display interpolator.
func (h *Handler) DisplayData(name string) models.DisplayData {
	h.mu.RLock()
	var recent []models.Sample
	if buf, ok := h.streams[name]; ok {
		recent = buf.Tail(h.cfg.DisplayWindow)
	}
	h.mu.RUnlock()

	out := models.DisplayData{
		Stream:     name,
		Timestamps: make([]time.Time, len(recent)),
		RawValues:  make([]float64, len(recent)),
	}
	smoothed := make([]float64, len(recent))
	for i, s := range recent {
		out.Timestamps[i] = s.Timestamp
		out.RawValues[i] = s.RawValue
		smoothed[i] = s.SmoothedValue
	}
	out.ProcessedValues = features.Interpolate(smoothed)
	return out
}

func (h *Handler) PerformanceStats() models.PerformanceStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return models.PerformanceStats{
		TotalPoints: h.tracker.TotalPoints(),
		Anomalies:   h.tracker.Anomalies(),
		AvgDataRate: h.tracker.AvgRate(),
		BufferUsage: h.bufferUsageLocked(),
	}
}

func (h *Handler) bufferUsageLocked() int {
	n := 0
	for _, r := range h.streams {
		n += r.Len()
	}
	return n
}

// Reset clears every stream and zeroes the point and anomaly counters.
// Registered streams stay registered.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.streams {
		r.Clear()
	}
	h.tracker.ResetCounts()
}

// Streams returns the registered stream names in registration order.
func (h *Handler) Streams() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Len returns the number of samples held for name.
func (h *Handler) Len(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.streams[name]; ok {
		return r.Len()
	}
	return 0
}

// Samples returns a copy of every sample held for name, oldest first.
func (h *Handler) Samples(name string) []models.Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.streams[name]; ok {
		return r.Values()
	}
	return nil
}

// Export dumps the buffered samples of every stream in registration order.
func (h *Handler) Export() []models.ExportRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.ExportRecord, 0, h.bufferUsageLocked())
	for _, name := range h.order {
		h.streams[name].Each(func(s models.Sample) {
			out = append(out, models.NewExportRecord(name, s))
		})
	}
	return out
}
