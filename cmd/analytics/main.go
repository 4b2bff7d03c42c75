package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/webcanteen/webcanteen-analytics/cmd/analytics/cli"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/export"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	analytichttp "github.com/webcanteen/webcanteen-analytics/internal/analytics/http"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
	"github.com/webcanteen/webcanteen-analytics/internal/app"
	"github.com/webcanteen/webcanteen-analytics/internal/observability"
	"github.com/webcanteen/webcanteen-analytics/internal/platform/cache"
	"github.com/webcanteen/webcanteen-analytics/internal/view"
	"github.com/webcanteen/webcanteen-analytics/jobs"
	"github.com/webcanteen/webcanteen-analytics/report"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		serve()
	case "summary":
		os.Exit(runSummary(args))
	case "warmup":
		os.Exit(runWarmup(args))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, summary or warmup)\n", cmd)
		os.Exit(cli.ExitUsage)
	}
}

func runSummary(args []string) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	path := fs.String("file", "", "dataset file (.json, .yaml or .yml)")
	output := fs.String("output", "text", "output format: text, json or csv")
	currencyCode := fs.String("currency", format.DefaultCurrency, "ISO 4217 currency code")
	locale := fs.String("locale", format.DefaultLocale, "BCP 47 locale for number formatting")
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}
	return cli.SummaryCommand(cli.SummaryOptions{
		Path:     *path,
		Output:   *output,
		Currency: *currencyCode,
		Locale:   *locale,
	})
}

func runWarmup(args []string) int {
	fs := flag.NewFlagSet("warmup", flag.ContinueOnError)
	periods := fs.String("periods", "", "comma separated periods to warm (default: all)")
	if err := fs.Parse(args); err != nil {
		return cli.ExitUsage
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warmup: load config: %v\n", err)
		return cli.ExitUsage
	}
	redisOpts, err := cache.AsynqOpts(cfg.RedisAddr)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warmup: %v\n", err)
		return cli.ExitUsage
	}
	jobsCLI, err := cli.NewJobsCLI(redisOpts)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warmup: %v\n", err)
		return cli.ExitUsage
	}
	defer func() { _ = jobsCLI.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	info, err := jobsCLI.TriggerWarmup(ctx, splitPeriods(*periods))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warmup: enqueue: %v\n", err)
		return cli.ExitUsage
	}
	stats, err := jobsCLI.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "enqueued %s (%s)\n", info.ID, info.Type)
		return cli.ExitOK
	}
	_, _ = fmt.Fprintf(os.Stdout, "enqueued %s (%s); queue %s pending=%d active=%d\n", info.ID, info.Type, stats.Queue, stats.Pending, stats.Active)
	return cli.ExitOK
}

func splitPeriods(raw string) []string {
	var periods []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			periods = append(periods, part)
		}
	}
	return periods
}

func serve() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	formatter, err := format.New(cfg.CurrencyCode, cfg.CurrencyLocale)
	if err != nil {
		logger.Error("configure currency", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	if err := analytics.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}

	stack := app.NewReportStack(ctx, cfg, logger)
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if stack.Redis != nil {
		cacheHelper := analytics.NewCache(stack.Redis, cfg.ReportCacheTTL)
		if err := cacheHelper.ListenForInvalidation(ctx, ""); err != nil {
			logger.Warn("listen for cache invalidation", slog.Any("error", err))
		}
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)
	pdfExporter := export.NewPDFExporter(reportClient)

	analyticsHandler := analytichttp.NewHandler(logger, stack.Service, formatter, ui.SVGRenderers(), pdfExporter)
	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	analyticsHandler.WithPages(templates)

	var jobHandler *jobs.Handler
	if stack.Redis != nil {
		redisOpts, err := cache.AsynqOpts(cfg.RedisAddr)
		if err != nil {
			logger.Error("asynq redis options", slog.Any("error", err))
			os.Exit(1)
		}
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = jobClient.Close() }()
		analyticsHandler.WithWarmer(jobClient)

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("datasets", stack.Source.Dir()), slog.Bool("redis", stack.Redis != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
