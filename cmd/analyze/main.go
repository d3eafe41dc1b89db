// Package main provides a CLI that analyzes a single wallet and prints the verdict.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fraud-signal-engine/internal/app"
	"github.com/fraud-signal-engine/internal/config"
	"github.com/fraud-signal-engine/internal/logging"
)

func main() {
	var (
		address     = flag.String("address", "", "Wallet address to analyze (required)")
		reason      = flag.String("reason", "", "Free-text reason supplied with the report")
		requestedBy = flag.String("requested-by", "cli", "Identity recorded on the verdict")
		refresh     = flag.Bool("refresh", false, "Bypass the snapshot cache")
	)
	flag.Parse()

	if *address == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// logs go to stderr so stdout carries only the verdict
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()
	logger.SetOutput(os.Stderr)

	engine, err := app.Build(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize engine")
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *refresh {
		if _, err := engine.Snapshots.GetTransactions(ctx, true); err != nil {
			logger.WithError(err).Warn("Snapshot refresh aborted")
		}
	}

	verdict := engine.Coordinator.Analyze(ctx, *address, *reason, *requestedBy)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(verdict); err != nil {
		log.Fatalf("Failed to encode verdict: %v", err)
	}
}
