package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	APIBaseURL    string        `envconfig:"API_BASE_URL" default:"http://localhost:4200"`
	APITimeout    time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	ClaimCacheTTL time.Duration `envconfig:"CLAIM_CACHE_TTL" default:"0s"`
	FeedbackTTL   time.Duration `envconfig:"FEEDBACK_TTL" default:"5s"`

	OrderStopHour     int    `envconfig:"ORDER_STOP_HOUR" default:"8"`
	OrderRolloverCron string `envconfig:"ORDER_ROLLOVER_CRON" default:"0 3 * * *"`

	AssetBuild        string `envconfig:"ASSET_BUILD" default:"dev"`
	OTLPEndpoint      string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	if c.APIBaseURL == "" {
		return errors.New("api base url must be provided")
	}
	if c.OrderStopHour < 1 || c.OrderStopHour > 23 {
		return fmt.Errorf("order stop hour %d out of range 1-23", c.OrderStopHour)
	}
	if c.ClaimCacheTTL < 0 || c.FeedbackTTL < 0 {
		return errors.New("ttl values must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
