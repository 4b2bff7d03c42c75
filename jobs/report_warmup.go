package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	jobmetrics "github.com/webcanteen/webcanteen-analytics/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const periodTimeout = 20 * time.Second

// ReportBuilder is the slice of the analytics service the warmup job needs.
type ReportBuilder interface {
	Periods(ctx context.Context) ([]string, error)
	Report(ctx context.Context, period string) (analytics.Report, error)
}

// ReportWarmupJob rebuilds period reports into the Redis cache.
type ReportWarmupJob struct {
	Reports ReportBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reports ReportBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reports,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes report warmup tasks. Every period is attempted; the first
// failure is returned so Asynq retries the task.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("report warmup: decode payload: %w", asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()

	periods := payload.Periods
	if len(periods) == 0 {
		discovered, err := j.Reports.Periods(ctx)
		if err != nil {
			resultErr = err
			logger.Error("list warmup periods", slog.Any("error", err))
			return resultErr
		}
		periods = discovered
	}
	if len(periods) == 0 {
		logger.Info("no periods discovered for warmup")
		return resultErr
	}

	logger.Info("starting report warmup", slog.Int("periods", len(periods)))
	built, failed := 0, 0
	for _, period := range periods {
		if err := j.warmPeriod(ctx, period); err != nil {
			failed++
			if resultErr == nil {
				resultErr = err
			}
			logger.Error("warm period", slog.String("period", period), slog.Any("error", err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		built++
	}
	j.metrics().AddPeriods(TaskReportWarmup, "built", built)
	j.metrics().AddPeriods(TaskReportWarmup, "failed", failed)

	logger.Info("completed report warmup", slog.Int("built", built), slog.Int("failed", failed), slog.Duration("duration", j.now().Sub(start)))
	return resultErr
}

func (j *ReportWarmupJob) warmPeriod(ctx context.Context, period string) error {
	periodCtx, cancel := context.WithTimeout(ctx, periodTimeout)
	defer cancel()
	_, err := j.Reports.Report(periodCtx, period)
	return err
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReportWarmup))
	}
	return slog.Default().With(slog.String("job", TaskReportWarmup))
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
