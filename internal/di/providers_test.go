package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AccelStream/internal/domain/models"
	"AccelStream/pkg/cache"
	"AccelStream/pkg/config"
)

func directConfig() *config.Config {
	cfg := config.Default()
	cfg.Telemetry.Enabled = false
	cfg.Logger.Output = "stderr"
	return cfg
}

func TestAxisProperties(t *testing.T) {
	cfg := directConfig()
	assert.Nil(t, axisProperties(cfg))

	cfg.Telemetry.Properties = map[string]string{"AccX": "X", "accy": "y_axis", "temp": "w"}
	props := axisProperties(cfg)
	assert.Equal(t, map[string]models.Axis{"accx": models.AxisX, "accy": models.AxisY}, props)

	cfg.Telemetry.Properties = map[string]string{"temp": "w"}
	assert.Nil(t, axisProperties(cfg))
}

func TestProvideAnomalyNotifierWithoutURL(t *testing.T) {
	cfg := directConfig()
	n := ProvideAnomalyNotifier(cfg)
	assert.True(t, n == nil, "expected a nil interface, got %T", n)

	cfg.Notify.WebhookURL = "http://localhost:1/hook"
	assert.NotNil(t, ProvideAnomalyNotifier(cfg))
}

func TestOptionalProvidersDisabled(t *testing.T) {
	cfg := directConfig()

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)
	assert.Nil(t, ProvideReadingPublisher(cfg, producer))

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	rc, err := ProvideRedisCache(cfg)
	require.NoError(t, err)
	assert.Nil(t, rc)

	_, isMem := ProvideCache(rc).(*cache.MemoryCache)
	assert.True(t, isMem)

	assert.Nil(t, ProvideTelemetryCollector(cfg, nil, nil, nil))
	assert.Nil(t, ProvideOpsQueue(cfg, rc, nil, nil, nil, nil))

	cfg.Server.ResetRateLimit = 0
	assert.Nil(t, ProvideResetLimiter(cfg))
	cfg.Server.ResetRateLimit = 3
	assert.NotNil(t, ProvideResetLimiter(cfg))
}

func TestInitializeAppDirectBackend(t *testing.T) {
	app, err := InitializeApp(directConfig())
	require.NoError(t, err)
	assert.NotNil(t, app)
}
