package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	dsvc "AccelStream/internal/domain/service"
	"AccelStream/pkg/cache"
	"AccelStream/pkg/logger"
	"AccelStream/pkg/queue"
)

const (
	JobTypeReset  = "ops.reset"
	JobTypeExport = "ops.export"

	exportLockKey = "lock:export"
)

// OpsPayload is the optional body of operator jobs.
type OpsPayload struct {
	Reason      string `json:"reason,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// ResetJob clears the engine buffers and counters.
type ResetJob struct {
	engine dsvc.StreamEngine
	log    *logger.Logger
}

func NewResetJob(engine dsvc.StreamEngine, lgr *logger.Logger) *ResetJob {
	return &ResetJob{engine: engine, log: lgr}
}

func (j *ResetJob) Name() string { return "reset" }
func (j *ResetJob) Type() string { return JobTypeReset }

func (j *ResetJob) Handle(_ context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[OpsPayload](payload)
	if err != nil {
		return err
	}
	j.engine.Reset()
	j.log.Info("streams reset", logger.String("reason", p.Reason), logger.String("requested_by", p.RequestedBy))
	return nil
}

// ExportJob persists the current snapshot. A cache lock keeps replicas sharing
// the queue from exporting at the same time.
type ExportJob struct {
	export  *ExportUseCase
	locker  cache.Service
	lockTTL time.Duration
	log     *logger.Logger
}

func NewExportJob(export *ExportUseCase, locker cache.Service, lgr *logger.Logger) *ExportJob {
	return &ExportJob{export: export, locker: locker, lockTTL: time.Minute, log: lgr}
}

func (j *ExportJob) Name() string { return "export" }
func (j *ExportJob) Type() string { return JobTypeExport }

func (j *ExportJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[OpsPayload](payload)
	if err != nil {
		return err
	}
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx, exportLockKey, j.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire export lock: %w", err)
		}
		if !ok {
			j.log.Info("export already running, skipped")
			return nil
		}
		defer func() { _ = j.locker.Unlock(context.WithoutCancel(ctx), exportLockKey) }()
	}
	n, err := j.export.Store(ctx)
	if err != nil {
		return err
	}
	j.log.Info("export job done", logger.Int("records", n), logger.String("reason", p.Reason))
	return nil
}

var (
	_ queue.Job = (*ResetJob)(nil)
	_ queue.Job = (*ExportJob)(nil)
)
