package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/internal/services/stream"
)

type fakeMetrics struct {
	mu        sync.Mutex
	samples   int
	anomalies int
	errors    map[string]int
	latencies map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, latencies: map[string]int{}}
}

func (m *fakeMetrics) RecordSample(_ string, _ float64, anomaly bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples++
	if anomaly {
		m.anomalies++
	}
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	m.latencies[op]++
	m.mu.Unlock()
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeStorage struct {
	mu      sync.Mutex
	stored  []models.ExportRecord
	err     error
	queried []string
}

func (s *fakeStorage) Init(context.Context) error { return nil }

func (s *fakeStorage) StoreBatch(_ context.Context, recs []models.ExportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, recs...)
	return nil
}

func (s *fakeStorage) Query(_ context.Context, stream string, from, to time.Time, limit int) ([]models.ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, stream)
	var out []models.ExportRecord
	for _, r := range s.stored {
		if r.Stream == stream && !r.Timestamp.Before(from) && !r.Timestamp.After(to) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	single []*models.AxisReading
	batch  [][]*models.AxisReading
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, r *models.AxisReading) error {
	p.mu.Lock()
	p.single = append(p.single, r)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, rs []*models.AxisReading) error {
	p.mu.Lock()
	p.batch = append(p.batch, rs)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type notification struct {
	stream string
	sample models.Sample
}

type chanNotifier chan notification

func (c chanNotifier) NotifyAnomaly(_ context.Context, stream string, s models.Sample) error {
	c <- notification{stream, s}
	return nil
}

func newTestHandler(t *testing.T) (*stream.Handler, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Unix(1700000000, 0))
	h, err := stream.NewHandler(stream.DefaultConfig(), stream.WithClock(clk))
	require.NoError(t, err)
	return h, clk
}

func axisReading(axis models.Axis, v float64, ts time.Time) *models.AxisReading {
	return &models.AxisReading{Axis: axis, Value: v, Timestamp: ts}
}
