package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"domfin/internal/amqp"
	"domfin/internal/config"
	"domfin/internal/services"
	gsheet "domfin/internal/sheets/google"
	"domfin/internal/storage"
	"domfin/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting domfin-worker")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository shared with the API server
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize AMQP client with retry so the worker survives broker restarts
	amqpClient, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Backup worker writes daily JSON snapshots, triggered by change
	// messages with a periodic safety net for missed ones.
	backupWorker := worker.NewBackupWorker(repo, cfg.BackupDir, cfg.BackupDebounce, cfg.BackupInterval, cfg.BackupKeep)

	go func() {
		if err := backupWorker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Backup worker stopped", "error", err)
			cancel()
		}
	}()

	go func() {
		if err := amqpClient.ConsumeChanges(ctx, backupWorker.HandleChange); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Initialize Google Sheets report exports (optional)
	var reportProcessor *services.ReportProcessor
	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

		processorCfg := services.DefaultReportProcessorConfig()
		processorCfg.ExportInterval = cfg.ReportExportInterval
		reportProcessor = services.NewReportProcessor(repo, sheetsClient, processorCfg)
		if err := reportProcessor.Start(ctx); err != nil {
			logger.Error("Failed to start report processor", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if reportProcessor != nil {
		if err := reportProcessor.Stop(shutdownCtx); err != nil {
			logger.Error("Report processor shutdown failed", "error", err)
		}
	}

	// Flush one last backup so nothing received before shutdown is lost
	if err := backupWorker.WriteBackup(shutdownCtx); err != nil {
		logger.Error("Final backup failed", "error", err)
	}
	cancel()

	logger.Info("Worker shutdown complete")
}
