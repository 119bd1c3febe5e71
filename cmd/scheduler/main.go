// Package main provides the long-running scheduler entry point for the dApp
// trend scanner. It runs the daily trend score pass and the hourly alert
// evaluation pass on cron schedules until terminated.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/trend-scanner/internal/config"
	"github.com/trend-scanner/internal/logging"
	"github.com/trend-scanner/internal/retry"
	"github.com/trend-scanner/internal/service"
	"github.com/trend-scanner/internal/storage"
)

func main() {
	fmt.Println("dApp Trend Scanner - Scheduler")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	// Initialize database connections
	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories and services
	dappRepo := storage.NewDappRepository(postgres)
	scoreRepo := storage.NewTrendScoreRepository(postgres)

	scoreSvc, err := service.NewTrendScoreService(&service.TrendScoreServiceConfig{
		MetricRepo:    storage.NewMetricRepository(clickhouse),
		ScoreRepo:     scoreRepo,
		DappRepo:      dappRepo,
		Cache:         storage.NewScoreCache(redis, cfg.Cache.ScoreTTL),
		RatePerSecond: cfg.Jobs.ScoreRatePerSecond,
		WindowDays:    cfg.Jobs.MetricWindowDays,
	})
	if err != nil {
		logger.Fatalf("Failed to create trend score service: %v", err)
	}

	alertSvc, err := service.NewAlertService(&service.AlertServiceConfig{
		AlertRepo: storage.NewAlertRepository(postgres),
		DappRepo:  dappRepo,
		ScoreRepo: scoreRepo,
		Sink:      storage.NewNotificationRepository(postgres),
	})
	if err != nil {
		logger.Fatalf("Failed to create alert service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transient batch failures (an unreachable database, usually) are
	// retried with backoff inside the tick; the overlap guard inside each
	// service keeps a slow pass from stacking on the next tick.
	runWithRetry := func(name string, fn func(context.Context) error) {
		logger.Infof("Scheduled job fired: %s", name)
		err := retry.WithExponentialBackoff(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
			return fn(ctx)
		})
		if err != nil {
			logger.WithField("job", name).ErrorWithErr("Scheduled job failed after retries", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Jobs.ScoreCron, func() {
		runWithRetry("trend_score", scoreSvc.CalculateAll)
	}); err != nil {
		logger.Fatalf("Invalid score cron expression %q: %v", cfg.Jobs.ScoreCron, err)
	}
	if _, err := c.AddFunc(cfg.Jobs.AlertCron, func() {
		runWithRetry("alert_evaluation", alertSvc.EvaluateAll)
	}); err != nil {
		logger.Fatalf("Invalid alert cron expression %q: %v", cfg.Jobs.AlertCron, err)
	}

	c.Start()
	logger.WithFields(map[string]interface{}{
		"scoreCron": cfg.Jobs.ScoreCron,
		"alertCron": cfg.Jobs.AlertCron,
	}).Info("Scheduler started")

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping scheduler...")

	// Stop scheduling new runs, then wait for in-flight jobs to finish.
	<-c.Stop().Done()
	logger.Info("Scheduler stopped")
}
