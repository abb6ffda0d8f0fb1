package usecase

import (
	"context"
	"fmt"
	"time"

	"AccelStream/internal/domain/models"
	drepo "AccelStream/internal/domain/repository"
	dsvc "AccelStream/internal/domain/service"
	"AccelStream/pkg/logger"
)

// SampleIngestor assembles axis readings into composites and feeds every
// axis of a completed composite into the stream engine.
type SampleIngestor struct {
	engine   dsvc.StreamEngine
	asm      *Assembler
	metrics  drepo.Metrics
	notifier drepo.AnomalyNotifier
	log      *logger.Logger
	warmup   uint64
	notifyTO time.Duration
}

type IngestorOption func(*SampleIngestor)

// WithNotifier forwards anomalous samples to n.
func WithNotifier(n drepo.AnomalyNotifier) IngestorOption {
	return func(s *SampleIngestor) { s.notifier = n }
}

// WithWarmup sets how many composites must be assembled before Progress reports ready.
func WithWarmup(n int) IngestorOption {
	return func(s *SampleIngestor) {
		if n >= 0 {
			s.warmup = uint64(n)
		}
	}
}

// WithNotifyTimeout bounds each notifier call.
func WithNotifyTimeout(d time.Duration) IngestorOption {
	return func(s *SampleIngestor) {
		if d > 0 {
			s.notifyTO = d
		}
	}
}

func NewSampleIngestor(engine dsvc.StreamEngine, metrics drepo.Metrics, lgr *logger.Logger, opts ...IngestorOption) *SampleIngestor {
	s := &SampleIngestor{
		engine:   engine,
		metrics:  metrics,
		log:      lgr,
		warmup:   10,
		notifyTO: 3 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	for _, a := range models.Axes {
		engine.Register(a.StreamName())
	}
	s.asm = NewAssembler(s.emit)
	return s
}

// Ingest offers one axis reading to the assembler.
func (s *SampleIngestor) Ingest(ctx context.Context, r *models.AxisReading) error {
	if r == nil {
		return fmt.Errorf("reading is nil")
	}
	if _, err := s.asm.Offer(ctx, *r); err != nil {
		s.metrics.RecordError("assemble")
		return err
	}
	return nil
}

// Process lets the ingestor act as a pipeline processor.
func (s *SampleIngestor) Process(ctx context.Context, r *models.AxisReading) error {
	return s.Ingest(ctx, r)
}

// IngestPoint adds a single value to stream name, bypassing assembly.
func (s *SampleIngestor) IngestPoint(ctx context.Context, name string, value float64, ts time.Time) models.Sample {
	sample := s.engine.AddDataPointAt(name, value, ts)
	s.observe(ctx, name, sample)
	return sample
}

func (s *SampleIngestor) emit(ctx context.Context, c models.CompositeSample) {
	start := time.Now()
	for _, a := range models.Axes {
		v := c.Get(a)
		name := a.StreamName()
		sample := s.engine.AddDataPointAt(name, v.Value, v.Timestamp)
		s.observe(ctx, name, sample)
	}
	s.metrics.RecordLatency("ingest_composite", time.Since(start).Seconds())
}

func (s *SampleIngestor) observe(ctx context.Context, name string, sample models.Sample) {
	s.metrics.RecordSample(name, sample.RawValue, sample.IsAnomaly)
	if !sample.IsAnomaly {
		return
	}
	s.log.Warn("anomaly detected",
		logger.String("stream", name),
		logger.Float64("value", sample.RawValue),
		logger.Float64("smoothed", sample.SmoothedValue),
		logger.Time("timestamp", sample.Timestamp),
	)
	if s.notifier == nil {
		return
	}
	go func() {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTO)
		defer cancel()
		if err := s.notifier.NotifyAnomaly(nctx, name, sample); err != nil {
			s.metrics.RecordError("notify")
			s.log.Error("anomaly notification failed", logger.String("stream", name), logger.Error(err))
		}
	}()
}

// Progress reports assembled composites against the warm-up target.
func (s *SampleIngestor) Progress() models.CollectionProgress {
	n := s.asm.Completed()
	return models.CollectionProgress{
		CompleteSamples: n,
		WarmupSamples:   s.warmup,
		Ready:           n >= s.warmup,
	}
}

// Assembler exposes the assembler for inspection.
func (s *SampleIngestor) Assembler() *Assembler { return s.asm }
