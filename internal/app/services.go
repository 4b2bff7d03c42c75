package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
	"github.com/webcanteen/webcanteen-analytics/internal/platform/cache"
)

// ReportStack bundles the report service with the Redis client backing it.
type ReportStack struct {
	Service *analytics.Service
	Source  *ingest.FileSource
	Redis   *redis.Client
}

// Close releases the Redis client when one was opened.
func (s *ReportStack) Close() error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}

// NewReportStack wires the file dataset source with the Redis report cache.
// When Redis is disabled or unreachable the service computes every report
// directly and snapshots are unavailable.
func NewReportStack(ctx context.Context, cfg *Config, logger *slog.Logger) *ReportStack {
	source := ingest.NewFileSource(cfg.DatasetDir)
	stack := &ReportStack{Source: source}

	if cfg.RedisEnabled {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		} else {
			stack.Redis = client
		}
	}

	var reportCache *analytics.Cache
	if stack.Redis != nil {
		reportCache = analytics.NewCache(stack.Redis, cfg.ReportCacheTTL)
	}
	stack.Service = analytics.NewService(source, reportCache, analytics.WithSnapshotTTL(cfg.SnapshotTTL))
	return stack
}
