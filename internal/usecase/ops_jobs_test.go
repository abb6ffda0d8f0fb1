package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/pkg/cache"
	"AccelStream/pkg/logger"
)

func TestResetJob(t *testing.T) {
	h, _ := newTestHandler(t)
	h.AddDataPointAt("x_axis", 1, time.Unix(1700000000, 0))

	j := NewResetJob(h, logger.Nop())
	assert.Equal(t, JobTypeReset, j.Type())
	require.NoError(t, j.Handle(context.Background(), json.RawMessage(`{"reason":"recalibrated"}`)))
	assert.Equal(t, 0, h.Len("x_axis"))
	assert.Equal(t, uint64(0), h.PerformanceStats().TotalPoints)
	assert.Equal(t, []string{"x_axis"}, h.Streams())
}

func TestExportJobRespectsLock(t *testing.T) {
	h, _ := newTestHandler(t)
	h.AddDataPointAt("x_axis", 1, time.Unix(1700000000, 0))
	store := &fakeStorage{}
	mc := cache.NewMemoryCache()
	defer mc.Close()

	j := NewExportJob(NewExportUseCase(h, store, newFakeMetrics(), logger.Nop()), mc, logger.Nop())
	require.NoError(t, j.Handle(context.Background(), nil))
	assert.Len(t, store.stored, 1)

	ok, _ := mc.TryLock(context.Background(), exportLockKey, time.Minute)
	require.True(t, ok, "lock must be released after the job")

	require.NoError(t, j.Handle(context.Background(), nil))
	assert.Len(t, store.stored, 1, "held lock skips the export")
}

func TestExportJobWithoutStorageFails(t *testing.T) {
	h, _ := newTestHandler(t)
	h.AddDataPointAt("x_axis", 1, time.Unix(1700000000, 0))
	j := NewExportJob(NewExportUseCase(h, nil, newFakeMetrics(), logger.Nop()), nil, logger.Nop())
	assert.ErrorIs(t, j.Handle(context.Background(), nil), ErrNoStorage)
}
