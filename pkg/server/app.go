package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "AccelStream/internal/domain/repository"
	"AccelStream/internal/usecase"
	"AccelStream/pkg/cache"
	pkgch "AccelStream/pkg/clickhouse"
	"AccelStream/pkg/config"
	xhttp "AccelStream/pkg/http"
	pkgkafka "AccelStream/pkg/kafka"
	applogger "AccelStream/pkg/logger"
	"AccelStream/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.TelemetryCollector // nil when telemetry is disabled
	proc       *usecase.ReadingProcessor
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	httpServer *xhttp.Server
	snapshots  *usecase.SnapshotPublisher
	ops        *queue.RedisQueue
	storage    drepo.SampleStorage
	chClient   *pkgch.Client
	cache      cache.Service
}

// Components groups everything App starts and stops. Nil members are skipped.
type Components struct {
	Collector  *usecase.TelemetryCollector
	Processor  *usecase.ReadingProcessor
	Producer   *pkgkafka.Producer
	Consumer   *pkgkafka.Consumer
	HTTPServer *xhttp.Server
	Snapshots  *usecase.SnapshotPublisher
	Ops        *queue.RedisQueue
	Storage    drepo.SampleStorage
	ClickHouse *pkgch.Client
	Cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, c Components) *App {
	return &App{
		cfg:        cfg,
		log:        l,
		collector:  c.Collector,
		proc:       c.Processor,
		producer:   c.Producer,
		consumer:   c.Consumer,
		httpServer: c.HTTPServer,
		snapshots:  c.Snapshots,
		ops:        c.Ops,
		storage:    c.Storage,
		chClient:   c.ClickHouse,
		cache:      c.Cache,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	if a.ops != nil {
		if err := a.ops.Start(); err != nil {
			a.log.Error("ops queue start error", applogger.Error(err))
			a.shutdown()
			return err
		}
		a.log.Info("ops queue started", applogger.Int("workers", a.cfg.Ops.Workers))
	}

	if a.snapshots != nil {
		a.snapshots.Start(runCtx)
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(runCtx); err != nil {
				a.log.Error("collector error", applogger.Error(err))
			}
		}()
		a.log.Info("collector started",
			applogger.String("device", a.cfg.Telemetry.DeviceID),
			applogger.String("backend", a.cfg.Backend.Type))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		a.shutdown()
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	a.shutdown()
	return nil
}

// shutdown stops producers of work before the sinks they feed.
func (a *App) shutdown() {
	a.log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.snapshots != nil {
		a.snapshots.Stop()
	}

	if a.ops != nil {
		if err := a.ops.Stop(ctx); err != nil {
			a.log.Warn("ops queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// the log collector publishes through the producer
	a.log.RemoveCollector()
	if a.proc != nil {
		a.proc.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.log.Warn("storage close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
