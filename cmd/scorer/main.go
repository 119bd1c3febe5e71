// Package main provides the trend score batch entry point for the dApp
// trend scanner. It runs one scoring pass over every active dApp and exits.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trend-scanner/internal/config"
	"github.com/trend-scanner/internal/logging"
	"github.com/trend-scanner/internal/service"
	"github.com/trend-scanner/internal/storage"
)

func main() {
	fmt.Println("dApp Trend Scanner - Score Pass")

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

	svc, err := service.NewTrendScoreService(&service.TrendScoreServiceConfig{
		MetricRepo:    storage.NewMetricRepository(clickhouse),
		ScoreRepo:     storage.NewTrendScoreRepository(postgres),
		DappRepo:      storage.NewDappRepository(postgres),
		Cache:         storage.NewScoreCache(redis, cfg.Cache.ScoreTTL),
		RatePerSecond: cfg.Jobs.ScoreRatePerSecond,
		WindowDays:    cfg.Jobs.MetricWindowDays,
	})
	if err != nil {
		logger.Fatalf("Failed to create trend score service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.CalculateAll(ctx); err != nil {
		logger.ErrorWithErr("Trend score pass failed", err)
		os.Exit(1)
	}
}
