package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
	pkgkafka "AccelStream/pkg/kafka"
	"AccelStream/pkg/util"
)

// KafkaReadingsHandler consumes readings published by the kafka backend and
// hands them to the ingestor.
type KafkaReadingsHandler struct {
	topic   string
	ingest  Ingestor
	metrics domrepo.Metrics
	props   map[string]models.Axis
	now     func() time.Time
}

func NewKafkaReadingsHandler(topic string, ingest Ingestor, metrics domrepo.Metrics, props map[string]models.Axis) *KafkaReadingsHandler {
	if props == nil {
		props = domrepo.DefaultAxisProperties()
	}
	return &KafkaReadingsHandler{topic: topic, ingest: ingest, metrics: metrics, props: props, now: time.Now}
}

func (h *KafkaReadingsHandler) Topic() string { return h.topic }

// incoming message schema: {axis, value, t} with t in epoch ms or s
func (h *KafkaReadingsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Axis  string   `json:"axis"`
		Value *float64 `json:"value"`
		T     int64    `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	axis, ok := domrepo.NormalizeAxis(m.Axis, h.props)
	if !ok {
		h.metrics.RecordError("consumer_axis")
		return fmt.Errorf("%w: %q", ErrUnknownAxis, m.Axis)
	}
	if m.Value == nil {
		h.metrics.RecordError("consumer_value")
		return fmt.Errorf("reading for axis %s has no value", axis)
	}

	ts := h.now()
	if m.T > 0 {
		ts = util.FromEpoch(m.T)
		h.metrics.RecordLatency("ingest_e2e", h.now().Sub(ts).Seconds())
	}

	start := h.now()
	err := h.ingest.Ingest(ctx, &models.AxisReading{Axis: axis, Value: *m.Value, Timestamp: ts})
	h.metrics.RecordLatency("consumer_ingest", h.now().Sub(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_ingest")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaReadingsHandler)(nil)
