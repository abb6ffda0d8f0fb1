package repository

import (
	"context"
	"time"

	"AccelStream/internal/domain/models"
)

// TelemetryStream is a live source of per-axis device readings.
type TelemetryStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.AxisReading, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ReadingPublisher hands readings off to a broker.
type ReadingPublisher interface {
	Publish(ctx context.Context, r *models.AxisReading) error
	PublishBatch(ctx context.Context, readings []*models.AxisReading) error
	Close() error
}

// SampleStorage persists exported samples.
type SampleStorage interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, records []models.ExportRecord) error
	Query(ctx context.Context, stream string, from, to time.Time, limit int) ([]models.ExportRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics receives operational signals from the ingestion path.
type Metrics interface {
	RecordSample(stream string, value float64, anomaly bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// AnomalyNotifier is told about every sample flagged as anomalous.
type AnomalyNotifier interface {
	NotifyAnomaly(ctx context.Context, stream string, s models.Sample) error
}
