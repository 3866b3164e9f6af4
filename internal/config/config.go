package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string
}

// DBConfig selects the database driver and connection string. The sqlite
// driver exists for local development; deployments run postgres.
type DBConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// SchedulerConfig tunes the background billing sweep.
type SchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Config is the full application configuration, loaded once at startup.
type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string
	SnowflakeNode  int64
	HTTP           HTTPConfig
	DB             DBConfig
	Scheduler      SchedulerConfig
	Tracing        TracingConfig
}

// IsProduction reports whether the app runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment. A .env file, when present,
// seeds variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Environment:    getString("APP_ENV", "development"),
		ServiceName:    getString("SERVICE_NAME", "billing"),
		ServiceVersion: getString("SERVICE_VERSION", "dev"),
		SnowflakeNode:  getInt64("SNOWFLAKE_NODE", 1),
		HTTP: HTTPConfig{
			Addr: getString("HTTP_ADDR", ":8080"),
		},
		DB: DBConfig{
			Driver:       getString("DB_DRIVER", "postgres"),
			DSN:          getString("DB_DSN", ""),
			MaxOpenConns: int(getInt64("DB_MAX_OPEN_CONNS", 20)),
			MaxIdleConns: int(getInt64("DB_MAX_IDLE_CONNS", 5)),
		},
		Scheduler: SchedulerConfig{
			PollInterval: getDuration("SCHEDULER_POLL_INTERVAL", time.Minute),
			BatchSize:    int(getInt64("SCHEDULER_BATCH_SIZE", 50)),
		},
		Tracing: TracingConfig{
			Enabled:          getBool("TRACING_ENABLED", false),
			ExporterEndpoint: getString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ExporterProtocol: getString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    getFloat("TRACING_SAMPLING_RATIO", 0.1),
		},
	}
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
