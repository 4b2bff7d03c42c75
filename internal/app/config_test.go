package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATASET_DIR", "testdata")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.AppAddr)
	}
	if cfg.CurrencyCode != "INR" || cfg.CurrencyLocale != "en-IN" {
		t.Fatalf("unexpected currency defaults %s/%s", cfg.CurrencyCode, cfg.CurrencyLocale)
	}
	if cfg.ReportCacheTTL != 15*time.Minute || cfg.SnapshotTTL != 30*time.Minute {
		t.Fatalf("unexpected ttl defaults %s/%s", cfg.ReportCacheTTL, cfg.SnapshotTTL)
	}
	if !cfg.RedisEnabled {
		t.Fatalf("redis should be enabled by default")
	}
	if cfg.IsProduction() {
		t.Fatalf("development should not report production")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CURRENCY_CODE", "USD")
	t.Setenv("CURRENCY_LOCALE", "en-US")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("WARMUP_CRON", "@hourly")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.IsProduction() || cfg.RedisEnabled || cfg.CurrencyCode != "USD" || cfg.WarmupCron != "@hourly" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("CURRENCY_CODE", "RUPEE")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected invalid currency code to fail")
	}

	t.Setenv("CURRENCY_CODE", "INR")
	t.Setenv("SNAPSHOT_TTL", "-1m")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected negative ttl to fail")
	}

	t.Setenv("SNAPSHOT_TTL", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected malformed duration to fail")
	}
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{AppEnv: "production", LogFormat: "json"}, &buf).Info("ready")
	if !strings.Contains(buf.String(), `"msg":"ready"`) || !strings.Contains(buf.String(), `"env":"production"`) {
		t.Fatalf("expected json log line, got %s", buf.String())
	}

	buf.Reset()
	logger := newLogger(&Config{AppEnv: "production", LogFormat: "pretty"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") {
		t.Fatalf("unexpected text output %s", out)
	}
}
