package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/pkg/logger"
)

func TestExportStoreAndHistory(t *testing.T) {
	h, _ := newTestHandler(t)
	base := time.Unix(1700000000, 0)
	h.AddDataPointAt("x_axis", 1, base)
	h.AddDataPointAt("x_axis", 2, base.Add(time.Second))
	h.AddDataPointAt("y_axis", 3, base)

	store := &fakeStorage{}
	u := NewExportUseCase(h, store, newFakeMetrics(), logger.Nop())
	assert.Len(t, u.Snapshot(), 3)

	n, err := u.Store(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recs, err := u.History(context.Background(), "x_axis", base, base.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2.0, recs[1].RawValue)
}

func TestExportWithoutStorage(t *testing.T) {
	h, _ := newTestHandler(t)
	u := NewExportUseCase(h, nil, newFakeMetrics(), logger.Nop())
	assert.False(t, u.HasStorage())

	_, err := u.Store(context.Background())
	assert.ErrorIs(t, err, ErrNoStorage)
	_, err = u.History(context.Background(), "x_axis", time.Time{}, time.Now(), 1)
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestExportStoreFailure(t *testing.T) {
	h, _ := newTestHandler(t)
	h.AddDataPointAt("x_axis", 1, time.Unix(1700000000, 0))
	m := newFakeMetrics()
	u := NewExportUseCase(h, &fakeStorage{err: errors.New("ch down")}, m, logger.Nop())

	_, err := u.Store(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, m.errorCount("export_store"))
}
