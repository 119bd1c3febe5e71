// Package main provides the alert evaluation entry point for the dApp
// trend scanner. It runs one evaluation pass over every active alert and
// exits.
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
	fmt.Println("dApp Trend Scanner - Alert Pass")

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

	logger.Info("Connecting to Postgres...")
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	svc, err := service.NewAlertService(&service.AlertServiceConfig{
		AlertRepo: storage.NewAlertRepository(postgres),
		DappRepo:  storage.NewDappRepository(postgres),
		ScoreRepo: storage.NewTrendScoreRepository(postgres),
		Sink:      storage.NewNotificationRepository(postgres),
	})
	if err != nil {
		logger.Fatalf("Failed to create alert service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EvaluateAll(ctx); err != nil {
		logger.ErrorWithErr("Alert evaluation pass failed", err)
		os.Exit(1)
	}
}
