// Package main provides the API server entry point for the fraud signal engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fraud-signal-engine/internal/api"
	"github.com/fraud-signal-engine/internal/app"
	"github.com/fraud-signal-engine/internal/config"
	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Fraud Signal Engine API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	engine, err := app.Build(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize engine")
	}
	defer engine.Close()

	logger.WithFields(map[string]interface{}{
		"primary":      cfg.Sources.PrimaryURL != "",
		"secondary":    cfg.Sources.SecondaryURL != "",
		"backupFile":   cfg.Snapshot.BackupFilePath,
		"cacheTTL":     cfg.Snapshot.CacheTTL.String(),
		"maxStaleness": cfg.Snapshot.MaxStaleness.String(),
	}).Info("Acquisition layer initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var refresher *worker.SnapshotRefresher
	if cfg.Snapshot.RefreshInterval > 0 {
		refresher, err = worker.NewSnapshotRefresher(engine.Snapshots, cfg.Snapshot.RefreshInterval)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create snapshot refresher")
		}
		if err := refresher.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start snapshot refresher")
		}
	}

	serverConfig := api.DefaultServerConfig(cfg.Server.Host, cfg.Server.Port)
	serverConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
	serverConfig.Burst = cfg.RateLimit.Burst

	server := api.NewServer(serverConfig, engine.Coordinator, engine.Snapshots)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if refresher != nil {
		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Snapshot refresher did not stop cleanly")
		}
	}
	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
