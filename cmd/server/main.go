// Package main is the entry point for the conviction signal engine.
// The engine ingests trade disclosures from corporate insiders, legislators
// and institutional funds, maintains a position ledger with P&L attribution,
// and emits conviction alerts when independent sources converge on a ticker.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/conviction/internal/config"
	"github.com/aristath/conviction/internal/database"
	"github.com/aristath/conviction/internal/di"
	"github.com/aristath/conviction/internal/scheduler"
	"github.com/aristath/conviction/internal/server"
	"github.com/aristath/conviction/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting conviction engine")

	// Wire all dependencies: databases, repositories, services
	container, err := di.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Register background jobs
	sched := scheduler.New(log)

	analysisJob := scheduler.NewAnalysisJob(container.AnalysisService, log)
	if err := sched.AddJob(cfg.AnalysisSchedule, analysisJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.AnalysisSchedule).Msg("Failed to register analysis job")
	}

	maintenanceJob := scheduler.NewMaintenanceJob(map[string]*database.DB{
		"ledger": container.LedgerDB,
		"state":  container.StateDB,
	}, log)
	if err := sched.AddJob("0 0 * * * *", maintenanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}

	if container.BackupService != nil {
		backupJob := scheduler.NewBackupJob(container.BackupService, log)
		if err := sched.AddJob(cfg.BackupSchedule, backupJob); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.BackupSchedule).Msg("Failed to register backup job")
		}
	} else {
		log.Info().Msg("Backups not configured, skipping backup job")
	}

	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	// Start server in goroutine so shutdown handling can run on the main thread
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with a bounded wait for in-flight requests
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
