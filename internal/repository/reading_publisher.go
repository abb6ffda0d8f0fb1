package repository

import (
	"context"

	"AccelStream/internal/domain/models"
	domrepo "AccelStream/internal/domain/repository"
	pkgkafka "AccelStream/pkg/kafka"
)

// ReadingMessage is the Kafka wire format of one axis reading.
type ReadingMessage struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
	T     int64   `json:"t"` // epoch ms
}

func NewReadingMessage(r *models.AxisReading) ReadingMessage {
	return ReadingMessage{Axis: string(r.Axis), Value: r.Value, T: r.Timestamp.UnixMilli()}
}

// KafkaReadingPublisher implements ReadingPublisher on Kafka. Readings are keyed
// by device so all three axes land on one partition and keep their order.
type KafkaReadingPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	key      []byte
}

var _ domrepo.ReadingPublisher = (*KafkaReadingPublisher)(nil)

func NewKafkaReadingPublisher(producer *pkgkafka.Producer, topic, deviceID string) *KafkaReadingPublisher {
	return &KafkaReadingPublisher{producer: producer, topic: topic, key: []byte(deviceID)}
}

func (p *KafkaReadingPublisher) Publish(ctx context.Context, r *models.AxisReading) error {
	return p.producer.Publish(ctx, p.topic, p.key, NewReadingMessage(r))
}

func (p *KafkaReadingPublisher) PublishBatch(ctx context.Context, readings []*models.AxisReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(readings))
	for _, r := range readings {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: p.key, Value: NewReadingMessage(r)})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaReadingPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
