package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
)

type recordingIngestor struct {
	got []*models.AxisReading
}

func (r *recordingIngestor) Ingest(_ context.Context, rd *models.AxisReading) error {
	r.got = append(r.got, rd)
	return nil
}

func TestKafkaReadingsHandlerDecodes(t *testing.T) {
	ing := &recordingIngestor{}
	m := newFakeMetrics()
	h := NewKafkaReadingsHandler("readings", ing, m, nil)
	assert.Equal(t, "readings", h.Topic())

	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, []byte(`{"axis":"x","value":0.5,"t":1700000000123}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"axis":"py","value":-1,"t":1700000000}`)))
	require.NoError(t, h.Handle(ctx, []byte(`{"axis":"Z_AXIS","value":0}`)))

	require.Len(t, ing.got, 3)
	assert.Equal(t, models.AxisX, ing.got[0].Axis)
	assert.Equal(t, time.UnixMilli(1700000000123), ing.got[0].Timestamp)
	assert.Equal(t, models.AxisY, ing.got[1].Axis)
	assert.Equal(t, time.Unix(1700000000, 0), ing.got[1].Timestamp)
	assert.Equal(t, models.AxisZ, ing.got[2].Axis)
	assert.Equal(t, 0.0, ing.got[2].Value)
	assert.False(t, ing.got[2].Timestamp.IsZero())
}

func TestKafkaReadingsHandlerRejects(t *testing.T) {
	ing := &recordingIngestor{}
	m := newFakeMetrics()
	h := NewKafkaReadingsHandler("readings", ing, m, nil)
	ctx := context.Background()

	assert.Error(t, h.Handle(ctx, []byte(`not json`)))
	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"axis":"w","value":1}`)), ErrUnknownAxis)
	assert.Error(t, h.Handle(ctx, []byte(`{"axis":"x"}`)))
	assert.Empty(t, ing.got)
	assert.Equal(t, 1, m.errorCount("consumer_unmarshal"))
	assert.Equal(t, 1, m.errorCount("consumer_axis"))
	assert.Equal(t, 1, m.errorCount("consumer_value"))
}
