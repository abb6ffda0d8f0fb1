package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"AccelStream/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		ResetRateLimit  int           `yaml:"reset_rate_limit" default:"5"` // resets per minute per client
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level   string `yaml:"level" default:"info"`
		Format  string `yaml:"format" default:"console"`
		Output  string `yaml:"output" default:"stdout"`
		Collect struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"accelstream.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collect"`
	} `yaml:"logger"`
	Backend struct {
		Type         string        `yaml:"type" default:"direct"` // direct | kafka
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
	} `yaml:"backend"`
	Handler struct {
		BufferSize       int     `yaml:"buffer_size" default:"800"`
		DisplayWindow    int     `yaml:"display_window" default:"150"`
		SmoothingFactor  float64 `yaml:"smoothing_factor" default:"0.2"`
		AnomalyThreshold float64 `yaml:"anomaly_threshold" default:"2.5"`
	} `yaml:"handler"`
	Display struct {
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"150ms"`
		SnapshotTTL     time.Duration `yaml:"snapshot_ttl" default:"5s"`
		WarmupSamples   int           `yaml:"warmup_samples" default:"10"`
	} `yaml:"display"`
	Telemetry struct {
		Enabled        bool              `yaml:"enabled" default:"true"`
		DeviceID       string            `yaml:"device_id"`
		Secret         string            `yaml:"secret"`
		WebSocketURL   string            `yaml:"websocket_url" default:"wss://iot.example.net/stream"`
		Properties     map[string]string `yaml:"properties"` // property -> axis
		ReconnectDelay time.Duration     `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration     `yaml:"ping_interval" default:"30s"`
		BufferSize     int               `yaml:"buffer_size" default:"1000"`
	} `yaml:"telemetry"`
	Pipeline struct {
		MaxRPS     int `yaml:"max_rps" default:"200"`
		BufferSize int `yaml:"buffer_size" default:"2000"`
	} `yaml:"pipeline"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"accelstream.readings"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"5ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"accelstream"`
			Workers    int           `yaml:"workers" default:"1"`
			BufferSize int           `yaml:"buffer_size" default:"1000"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"telemetry"`
		Table            string        `yaml:"table" default:"samples"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Ops struct {
		Enabled    bool          `yaml:"enabled"`
		Queue      string        `yaml:"queue" default:"accelstream:ops"`
		Workers    int           `yaml:"workers" default:"1"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"2s"`
	} `yaml:"ops"`
	Notify struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout" default:"3s"`
		Retries    int           `yaml:"retries" default:"2"`
	} `yaml:"notify"`
}

// Default returns a configuration populated only from default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, overrides it with environment variables
// and validates the merged result.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("TELEMETRY_DEVICE_ID"); v != "" {
		c.Telemetry.DeviceID = v
	}
	if v := getenv("TELEMETRY_SECRET"); v != "" {
		c.Telemetry.Secret = v
	}
	if v := getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		c.Notify.WebhookURL = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "direct":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when backend.type is 'kafka'")
		}
	default:
		return fmt.Errorf("backend.type must be 'direct' or 'kafka', got '%s'", c.Backend.Type)
	}

	h := c.Handler
	if h.BufferSize <= 0 {
		return fmt.Errorf("handler.buffer_size must be > 0")
	}
	if h.DisplayWindow < 1 || h.DisplayWindow > h.BufferSize {
		return fmt.Errorf("handler.display_window must be between 1 and handler.buffer_size")
	}
	if h.SmoothingFactor <= 0 || h.SmoothingFactor > 1 {
		return fmt.Errorf("handler.smoothing_factor must be in (0, 1]")
	}
	if h.AnomalyThreshold <= 0 {
		return fmt.Errorf("handler.anomaly_threshold must be > 0")
	}

	if c.Display.RefreshInterval <= 0 {
		return fmt.Errorf("display.refresh_interval must be > 0")
	}
	if c.Telemetry.Enabled && c.Telemetry.DeviceID == "" {
		return fmt.Errorf("telemetry.device_id is required when telemetry is enabled")
	}
	if c.Logger.Collect.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when logger.collect is enabled")
	}
	if c.Ops.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("ops queue requires redis.enabled")
	}
	return nil
}
