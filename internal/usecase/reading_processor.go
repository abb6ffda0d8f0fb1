package usecase

import (
	"context"
	"fmt"
	"time"

	"AccelStream/internal/domain/models"
	drepo "AccelStream/internal/domain/repository"
)

const (
	BackendDirect = "direct"
	BackendKafka  = "kafka"
)

// Ingestor is the in-process destination of readings.
type Ingestor interface {
	Ingest(ctx context.Context, r *models.AxisReading) error
}

// ReadingProcessor routes readings to the configured backend: straight into
// the ingestor, or onto Kafka for a consumer to ingest.
type ReadingProcessor struct {
	ingest  Ingestor
	pub     drepo.ReadingPublisher
	metrics drepo.Metrics
	backend string
}

func NewReadingProcessor(ingest Ingestor, pub drepo.ReadingPublisher, metrics drepo.Metrics, backend string) *ReadingProcessor {
	return &ReadingProcessor{ingest: ingest, pub: pub, metrics: metrics, backend: backend}
}

func (p *ReadingProcessor) Backend() string { return p.backend }

// Process routes a single reading.
func (p *ReadingProcessor) Process(ctx context.Context, r *models.AxisReading) error {
	if r == nil {
		return fmt.Errorf("reading is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendDirect:
		err = p.ingest.Ingest(ctx, r)
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka backend without publisher")
		} else {
			err = p.pub.Publish(ctx, r)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process reading: %w", err)
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes readings in order. The Kafka backend publishes them in one batch.
func (p *ReadingProcessor) ProcessBatch(ctx context.Context, readings []*models.AxisReading) error {
	if len(readings) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendDirect:
		for _, r := range readings {
			if err = p.ingest.Ingest(ctx, r); err != nil {
				break
			}
		}
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka backend without publisher")
		} else {
			err = p.pub.PublishBatch(ctx, readings)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close releases the publisher if any.
func (p *ReadingProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
}
