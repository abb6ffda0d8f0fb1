package usecase

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	domrepo "AccelStream/internal/domain/repository"
	pkgkafka "AccelStream/pkg/kafka"
	"AccelStream/pkg/logger"
)

// NewConsumerHooks records handling latency and failures of consumed messages.
func NewConsumerHooks(metrics domrepo.Metrics, lgr *logger.Logger) pkgkafka.ConsumerHook {
	timing := pkgkafka.HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return pkgkafka.WithStartTime(ctx, time.Now()), km, data, nil
		},
		After: func(ctx context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			if start, ok := pkgkafka.StartTime(ctx); ok {
				metrics.RecordLatency("consume_"+topic, time.Since(start).Seconds())
			}
			if err != nil {
				metrics.RecordError("consume")
			}
		},
	}
	logging := pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
			lgr.Warn("reading dropped after retries",
				logger.String("topic", topic),
				logger.Int("partition", km.Partition),
				logger.Int64("offset", km.Offset),
				logger.Error(err),
			)
		},
	}
	return pkgkafka.NewHookChain(timing, logging)
}
