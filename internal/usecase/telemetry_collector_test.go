package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	mid "AccelStream/internal/middleware"
	"AccelStream/pkg/logger"
)

type fakeStream struct {
	mu         sync.Mutex
	readings   chan *models.AxisReading
	errs       chan error
	connected  bool
	reconnects int
	closed     bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{readings: make(chan *models.AxisReading, 16), errs: make(chan error, 1)}
}

func (s *fakeStream) Connect(context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Subscribe(context.Context) error { return nil }

func (s *fakeStream) Read(context.Context) (<-chan *models.AxisReading, <-chan error) {
	return s.readings, s.errs
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestTelemetryCollectorIngestsThroughPipeline(t *testing.T) {
	h, _ := newTestHandler(t)
	m := newFakeMetrics()
	ing := NewSampleIngestor(h, m, logger.Nop())
	proc := NewReadingProcessor(ing, nil, m, BackendDirect)
	pipe := mid.NewRealtimePipeline(proc, m, mid.WithMaxRPS(0))
	fs := newFakeStream()
	c := NewTelemetryCollector(fs, proc, m, pipe, logger.Nop(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsConnected())

	ts := time.Unix(1700000000, 0)
	for _, a := range models.Axes {
		fs.readings <- axisReading(a, 1, ts)
	}
	assert.Eventually(t, func() bool { return h.PerformanceStats().TotalPoints == 3 }, time.Second, 5*time.Millisecond)

	fs.errs <- errors.New("socket closed")
	assert.Eventually(t, func() bool { return fs.reconnectCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.False(t, c.IsConnected())
}
