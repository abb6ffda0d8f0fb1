package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
	dsvc "AccelStream/internal/domain/service"
	"AccelStream/pkg/logger"
)

// ErrNoStorage is returned when persistence is requested without a configured store.
var ErrNoStorage = errors.New("sample storage not configured")

// ExportUseCase dumps the engine buffers and persists or reads back the dumps.
type ExportUseCase struct {
	engine  dsvc.StreamEngine
	storage domrepo.SampleStorage
	metrics domrepo.Metrics
	log     *logger.Logger
}

// NewExportUseCase builds the use case. storage may be nil, in which case only
// Snapshot works.
func NewExportUseCase(engine dsvc.StreamEngine, storage domrepo.SampleStorage, metrics domrepo.Metrics, lgr *logger.Logger) *ExportUseCase {
	return &ExportUseCase{engine: engine, storage: storage, metrics: metrics, log: lgr}
}

// Snapshot returns every buffered sample of every stream.
func (u *ExportUseCase) Snapshot() []models.ExportRecord {
	return u.engine.Export()
}

// HasStorage reports whether Store and History are usable.
func (u *ExportUseCase) HasStorage() bool { return u.storage != nil }

// Store persists the current snapshot and returns the number of rows written.
func (u *ExportUseCase) Store(ctx context.Context) (int, error) {
	if u.storage == nil {
		return 0, ErrNoStorage
	}
	recs := u.Snapshot()
	if len(recs) == 0 {
		return 0, nil
	}

	start := time.Now()
	if err := u.storage.StoreBatch(ctx, recs); err != nil {
		u.metrics.RecordError("export_store")
		return 0, fmt.Errorf("store export: %w", err)
	}
	u.metrics.RecordLatency("export_store", time.Since(start).Seconds())
	u.log.Info("export stored", logger.Int("records", len(recs)), logger.Duration("elapsed_ms", time.Since(start)))
	return len(recs), nil
}

// History reads stored records of stream within [from, to].
func (u *ExportUseCase) History(ctx context.Context, stream string, from, to time.Time, limit int) ([]models.ExportRecord, error) {
	if u.storage == nil {
		return nil, ErrNoStorage
	}
	recs, err := u.storage.Query(ctx, stream, from, to, limit)
	if err != nil {
		u.metrics.RecordError("export_query")
		return nil, fmt.Errorf("query history: %w", err)
	}
	return recs, nil
}
