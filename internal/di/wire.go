//go:build wireinject
// +build wireinject

package di

import (
	"AccelStream/pkg/config"
	"AccelStream/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,

		// Stream engine
		ProvideStreamHandler,
		ProvideStreamEngine,

		// Repositories
		ProvideSampleStorage,
		ProvideReadingPublisher,
		ProvideAnomalyNotifier,

		// Use cases
		ProvideSampleIngestor,
		ProvideReadingProcessor,
		ProvideTelemetryCollector,
		ProvideKafkaConsumer,
		ProvideExportUseCase,
		ProvideSnapshotPublisher,
		ProvideOpsQueue,

		// HTTP
		ProvideResetLimiter,
		ProvideAPIHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
