package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.AxisReading) error
}

// RealtimePipeline sits between the device stream and the reading processor.
// It validates, throttles per axis, and buffers readings while downstream fails.
type RealtimePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.AxisReading
	now     func() time.Time

	mu       sync.Mutex
	started  bool
	stopCh   chan struct{}
	lastSeen map[models.Axis]time.Time

	transform func(*models.AxisReading) *models.AxisReading
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max readings per second per axis. Zero disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used while downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform rewrites each reading before it is throttled and forwarded.
func WithTransform(fn func(*models.AxisReading) *models.AxisReading) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func WithPipelineNow(now func() time.Time) PipelineOption {
	return func(p *RealtimePipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   200,
		bufSize:  1000,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[models.Axis]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AxisReading, p.bufSize)
	return p
}

// Start launches the retry loop for buffered readings.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	stop := p.stopCh
	p.mu.Unlock()

	go p.flush(ctx, stop)
}

func (p *RealtimePipeline) flush(ctx context.Context, stop <-chan struct{}) {
	const minBackoff = 50 * time.Millisecond
	backoff := minBackoff
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case r := <-p.bufCh:
			if err := p.proc.Process(ctx, r); err != nil {
				p.metrics.RecordError("pipeline_flush")
				if backoff < 2*time.Second {
					backoff *= 2
				}
				select {
				case <-time.After(backoff):
				case <-stop:
					return
				}
				p.enqueue(r)
				continue
			}
			backoff = minBackoff
		}
	}
}

// Stop stops the retry loop. Buffered readings are kept for a later Start.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stopCh)
	p.stopCh = make(chan struct{})
}

// Buffered returns the number of readings waiting for retry.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards r. A downstream failure buffers
// the reading and returns the error.
func (p *RealtimePipeline) Process(ctx context.Context, r *models.AxisReading) error {
	start := p.now()
	if err := ValidateReading(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		r = p.transform(r)
		if err := ValidateReading(r); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(r.Axis, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.enqueue(r)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *RealtimePipeline) enqueue(r *models.AxisReading) {
	select {
	case p.bufCh <- r:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

// ValidateReading rejects readings for unknown axes, non-finite values and
// missing timestamps.
func ValidateReading(r *models.AxisReading) error {
	if r == nil {
		return fmt.Errorf("reading nil")
	}
	if !r.Axis.Valid() {
		return fmt.Errorf("unknown axis %q", r.Axis)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return fmt.Errorf("value not finite")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	return nil
}

func (p *RealtimePipeline) allow(axis models.Axis, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[axis]
	if ok && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[axis] = now
	return true
}
