package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"AccelStream/internal/domain/models"
	"AccelStream/internal/domain/repository"
	dsvc "AccelStream/internal/domain/service"
	"AccelStream/internal/handler/api"
	mid "AccelStream/internal/middleware"
	internalrepo "AccelStream/internal/repository"
	svcmetrics "AccelStream/internal/service/metrics"
	"AccelStream/internal/service/ratelimit"
	"AccelStream/internal/service/telemetry"
	"AccelStream/internal/services/notify"
	"AccelStream/internal/services/stream"
	"AccelStream/internal/usecase"
	"AccelStream/pkg/cache"
	pkgch "AccelStream/pkg/clickhouse"
	"AccelStream/pkg/config"
	xhttp "AccelStream/pkg/http"
	pkgkafka "AccelStream/pkg/kafka"
	"AccelStream/pkg/logger"
	"AccelStream/pkg/metrics"
	"AccelStream/pkg/queue"
	"AccelStream/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer creates a Kafka producer when the kafka backend or the
// log collector needs one. It returns nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != usecase.BackendKafka && !cfg.Logger.Collect.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger and attaches the Kafka log
// collector when enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:   cfg.Logger.Level,
		Format:  cfg.Logger.Format,
		Output:  cfg.Logger.Output,
		Service: "accelstream",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logger.Collect.Enabled && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   cfg.Logger.Collect.Interval,
			CountThreshold: cfg.Logger.Collect.CountThreshold,
			Topic:          cfg.Logger.Collect.Topic,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideStreamHandler creates the stream engine with the three axis streams
// registered up front and exposes its stats on /metrics.
func ProvideStreamHandler(cfg *config.Config) (*stream.Handler, error) {
	names := make([]string, 0, len(models.Axes))
	for _, a := range models.Axes {
		names = append(names, a.StreamName())
	}
	h, err := stream.NewHandler(stream.Config{
		BufferSize:       cfg.Handler.BufferSize,
		DisplayWindow:    cfg.Handler.DisplayWindow,
		SmoothingFactor:  cfg.Handler.SmoothingFactor,
		AnomalyThreshold: cfg.Handler.AnomalyThreshold,
	}, stream.WithStreams(names...))
	if err != nil {
		return nil, fmt.Errorf("stream handler: %w", err)
	}
	if err := svcmetrics.RegisterStats(h); err != nil {
		return nil, fmt.Errorf("stream stats: %w", err)
	}
	return h, nil
}

func ProvideStreamEngine(h *stream.Handler) dsvc.StreamEngine {
	return h
}

// ProvideAnomalyNotifier returns the webhook notifier, or nil when no URL is configured.
func ProvideAnomalyNotifier(cfg *config.Config) repository.AnomalyNotifier {
	n := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Telemetry.DeviceID, cfg.Notify.Timeout, cfg.Notify.Retries)
	if n == nil {
		return nil
	}
	return n
}

func ProvideSampleIngestor(
	cfg *config.Config,
	engine dsvc.StreamEngine,
	m repository.Metrics,
	notifier repository.AnomalyNotifier,
	l *logger.Logger,
) *usecase.SampleIngestor {
	opts := []usecase.IngestorOption{
		usecase.WithWarmup(cfg.Display.WarmupSamples),
		usecase.WithNotifyTimeout(cfg.Notify.Timeout),
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}
	return usecase.NewSampleIngestor(engine, m, l.With(logger.String("component", "ingestor")), opts...)
}

// ProvideReadingPublisher returns the Kafka publisher for the kafka backend, nil otherwise.
func ProvideReadingPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ReadingPublisher {
	if cfg.Backend.Type != usecase.BackendKafka || producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReadingPublisher(producer, cfg.Kafka.Topic, cfg.Telemetry.DeviceID)
}

func ProvideReadingProcessor(
	cfg *config.Config,
	ingest *usecase.SampleIngestor,
	pub repository.ReadingPublisher,
	m repository.Metrics,
) *usecase.ReadingProcessor {
	return usecase.NewReadingProcessor(ingest, pub, m, cfg.Backend.Type)
}

// axisProperties converts the configured property -> axis names. Unknown axes
// are skipped; nil means the defaults.
func axisProperties(cfg *config.Config) map[string]models.Axis {
	if len(cfg.Telemetry.Properties) == 0 {
		return nil
	}
	props := make(map[string]models.Axis, len(cfg.Telemetry.Properties))
	for prop, axis := range cfg.Telemetry.Properties {
		if a, ok := repository.NormalizeAxis(axis, nil); ok {
			props[strings.ToLower(strings.TrimSpace(prop))] = a
		}
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// ProvideTelemetryCollector wires the device stream through the realtime
// pipeline. It returns nil when telemetry is disabled.
func ProvideTelemetryCollector(
	cfg *config.Config,
	proc *usecase.ReadingProcessor,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.TelemetryCollector {
	if !cfg.Telemetry.Enabled {
		return nil
	}
	tc := cfg.Telemetry
	client := telemetry.New(tc.DeviceID, tc.Secret, tc.WebSocketURL,
		l.With(logger.String("component", "telemetry")),
		telemetry.WithProperties(axisProperties(cfg)),
		telemetry.WithReconnectDelay(tc.ReconnectDelay),
		telemetry.WithPingInterval(tc.PingInterval),
		telemetry.WithBufferSize(tc.BufferSize),
	)
	pipe := mid.NewRealtimePipeline(proc, m,
		mid.WithMaxRPS(cfg.Pipeline.MaxRPS),
		mid.WithBufferSize(cfg.Pipeline.BufferSize),
	)
	return usecase.NewTelemetryCollector(client, proc, m, pipe, l, tc.ReconnectDelay)
}

// ProvideKafkaConsumer creates the readings consumer for the kafka backend, nil otherwise.
func ProvideKafkaConsumer(
	cfg *config.Config,
	ingest *usecase.SampleIngestor,
	m repository.Metrics,
	l *logger.Logger,
) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerBufferSize(kc.BufferSize),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerFetch(kc.MinBytes, kc.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(logger.String("component", "consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(usecase.NewConsumerHooks(m, l))
	consumer.RegisterHandler(usecase.NewKafkaReadingsHandler(cfg.Kafka.Topic, ingest, m, axisProperties(cfg)))
	return consumer, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSampleStorage creates the samples table and its repository. It
// returns nil when ClickHouse is disabled.
func ProvideSampleStorage(cfg *config.Config, ch *pkgch.Client, l *logger.Logger) (repository.SampleStorage, error) {
	if ch == nil {
		return nil, nil
	}
	s := internalrepo.NewClickHouseSampleStorage(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Table,
		l.With(logger.String("component", "storage")))

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := s.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return s, nil
}

func ProvideExportUseCase(
	engine dsvc.StreamEngine,
	storage repository.SampleStorage,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ExportUseCase {
	return usecase.NewExportUseCase(engine, storage, m, l)
}

// ProvideRedisCache connects to Redis, or returns nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache prefers Redis and falls back to an in-process cache.
func ProvideCache(rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return rc
	}
	return cache.NewMemoryCache()
}

func ProvideSnapshotPublisher(
	cfg *config.Config,
	engine dsvc.StreamEngine,
	c cache.Service,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.SnapshotPublisher {
	return usecase.NewSnapshotPublisher(engine, c, m, l.With(logger.String("component", "snapshots")),
		cfg.Display.RefreshInterval, cfg.Display.SnapshotTTL)
}

// ProvideOpsQueue creates the Redis operations queue with the reset and
// export jobs. It returns nil when the queue is disabled.
func ProvideOpsQueue(
	cfg *config.Config,
	rc *cache.RedisCache,
	c cache.Service,
	engine dsvc.StreamEngine,
	export *usecase.ExportUseCase,
	l *logger.Logger,
) *queue.RedisQueue {
	if !cfg.Ops.Enabled || rc == nil {
		return nil
	}
	ql := l.With(logger.String("component", "ops"))
	q := queue.NewRedisQueue(ql, queue.QueueConfig{
		Workers:    cfg.Ops.Workers,
		RetryLimit: cfg.Ops.MaxRetries,
		RetryDelay: cfg.Ops.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Ops.Queue))
	q.RegisterJob(usecase.NewResetJob(engine, ql))
	q.RegisterJob(usecase.NewExportJob(export, c, ql))
	return q
}

// ProvideResetLimiter limits resets per client, or returns nil when the limit is 0.
func ProvideResetLimiter(cfg *config.Config) *ratelimit.Limiter {
	n := cfg.Server.ResetRateLimit
	if n <= 0 {
		return nil
	}
	return ratelimit.New(n, float64(n))
}

func ProvideAPIHandler(
	l *logger.Logger,
	engine dsvc.StreamEngine,
	ingest *usecase.SampleIngestor,
	export *usecase.ExportUseCase,
	ops *queue.RedisQueue,
	limiter *ratelimit.Limiter,
) *api.StreamEchoHandler {
	opts := []api.HandlerOption{api.WithResetLimiter(limiter)}
	if ops != nil {
		opts = append(opts, api.WithOpsQueue(ops))
	}
	return api.NewStreamEchoHandler(l.With(logger.String("component", "api")), engine, ingest, export, opts...)
}

var errTelemetryDown = errors.New("telemetry stream not connected")

// ProvideHTTPServer creates the HTTP server with a health check per
// configured dependency.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.StreamEchoHandler,
	l *logger.Logger,
	storage repository.SampleStorage,
	rc *cache.RedisCache,
	collector *usecase.TelemetryCollector,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l.With(logger.String("component", "http"))),
	}
	if storage != nil {
		opts = append(opts, xhttp.WithHealthCheck("clickhouse", storage.Health))
	}
	if rc != nil {
		opts = append(opts, xhttp.WithHealthCheck("redis", rc.Ping))
	}
	if collector != nil {
		opts = append(opts, xhttp.WithHealthCheck("telemetry", func(context.Context) error {
			if !collector.IsConnected() {
				return errTelemetryDown
			}
			return nil
		}))
	}
	return xhttp.NewServer(h, opts...)
}

func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	collector *usecase.TelemetryCollector,
	proc *usecase.ReadingProcessor,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	srv *xhttp.Server,
	snapshots *usecase.SnapshotPublisher,
	ops *queue.RedisQueue,
	storage repository.SampleStorage,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, server.Components{
		Collector:  collector,
		Processor:  proc,
		Producer:   producer,
		Consumer:   consumer,
		HTTPServer: srv,
		Snapshots:  snapshots,
		Ops:        ops,
		Storage:    storage,
		ClickHouse: ch,
		Cache:      c,
	})
}
