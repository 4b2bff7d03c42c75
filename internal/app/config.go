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
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"40s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisEnabled   bool          `envconfig:"REDIS_ENABLED" default:"true"`
	ReportCacheTTL time.Duration `envconfig:"REPORT_CACHE_TTL" default:"15m"`
	SnapshotTTL    time.Duration `envconfig:"SNAPSHOT_TTL" default:"30m"`

	DatasetDir string `envconfig:"DATASET_DIR" default:"data"`

	CurrencyCode   string `envconfig:"CURRENCY_CODE" default:"INR"`
	CurrencyLocale string `envconfig:"CURRENCY_LOCALE" default:"en-IN"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`

	WarmupCron        string `envconfig:"WARMUP_CRON" default:"15 2 * * *"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatasetDir == "" {
		return errors.New("dataset dir must be provided")
	}
	if c.ReportCacheTTL < 0 || c.SnapshotTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if len(c.CurrencyCode) != 3 {
		return fmt.Errorf("currency code %q must be a 3-letter ISO 4217 code", c.CurrencyCode)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
