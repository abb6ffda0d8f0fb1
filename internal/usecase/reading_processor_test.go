package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/pkg/logger"
)

func TestReadingProcessorDirect(t *testing.T) {
	h, _ := newTestHandler(t)
	ing := NewSampleIngestor(h, newFakeMetrics(), logger.Nop())
	p := NewReadingProcessor(ing, nil, newFakeMetrics(), BackendDirect)

	ts := time.Unix(1700000000, 0)
	batch := []*models.AxisReading{
		axisReading(models.AxisX, 1, ts),
		axisReading(models.AxisY, 2, ts),
		axisReading(models.AxisZ, 3, ts),
	}
	require.NoError(t, p.ProcessBatch(context.Background(), batch))
	assert.Equal(t, 1, h.Len("z_axis"))
}

func TestReadingProcessorKafka(t *testing.T) {
	pub := &fakePublisher{}
	p := NewReadingProcessor(nil, pub, newFakeMetrics(), BackendKafka)
	ts := time.Unix(1700000000, 0)

	require.NoError(t, p.Process(context.Background(), axisReading(models.AxisX, 1, ts)))
	require.NoError(t, p.ProcessBatch(context.Background(), []*models.AxisReading{axisReading(models.AxisY, 2, ts)}))
	assert.Len(t, pub.single, 1)
	assert.Len(t, pub.batch, 1)

	p.Close()
	assert.True(t, pub.closed)
}

func TestReadingProcessorErrors(t *testing.T) {
	m := newFakeMetrics()
	ts := time.Unix(1700000000, 0)

	p := NewReadingProcessor(nil, nil, m, "carrier-pigeon")
	assert.Error(t, p.Process(context.Background(), axisReading(models.AxisX, 1, ts)))

	p = NewReadingProcessor(nil, nil, m, BackendKafka)
	assert.Error(t, p.Process(context.Background(), axisReading(models.AxisX, 1, ts)))
	assert.Error(t, p.Process(context.Background(), nil))
	assert.Equal(t, 2, m.errorCount("process"))
}
