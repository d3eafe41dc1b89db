// Package app assembles the engine's components from configuration.
package app

import (
	"fmt"

	"github.com/fraud-signal-engine/internal/acquisition"
	"github.com/fraud-signal-engine/internal/config"
	"github.com/fraud-signal-engine/internal/detection"
	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/risk"
	"github.com/fraud-signal-engine/internal/service"
	"github.com/fraud-signal-engine/internal/source"
	"github.com/fraud-signal-engine/internal/storage"
	"github.com/fraud-signal-engine/internal/types"
)

// Engine holds the wired components and the connections they own
type Engine struct {
	Snapshots   *acquisition.Manager
	Coordinator *service.AnalysisCoordinator

	postgres *storage.PostgresDB
	redis    *storage.RedisCache
}

// Build wires sources, the acquisition manager, the report-history lookup and the coordinator
func Build(cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	sources, err := BuildSources(cfg.Sources)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Warn("No live transaction sources configured, relying on backup file and cache")
	}

	manager := acquisition.NewManager(
		sources,
		source.NewBackupFile(cfg.Snapshot.BackupFilePath),
		acquisition.Config{
			CacheTTL:     cfg.Snapshot.CacheTTL,
			MaxStaleness: cfg.Snapshot.MaxStaleness,
		},
		logger.WithField("component", "acquisition"),
	)

	engine := &Engine{Snapshots: manager}

	reports, err := engine.buildReportHistory(cfg, logger)
	if err != nil {
		engine.Close()
		return nil, err
	}

	engine.Coordinator = service.NewAnalysisCoordinator(manager, detection.NewSuite(reports), risk.NewDefaultAggregator())
	return engine, nil
}

// BuildSources creates one HTTP client per configured endpoint, primary first.
// Endpoints with an empty URL are skipped.
func BuildSources(cfg config.SourcesConfig) ([]source.Client, error) {
	endpoints := []struct {
		name string
		kind types.SourceKind
		url  string
	}{
		{"primary", types.SourcePrimary, cfg.PrimaryURL},
		{"secondary", types.SourceSecondary, cfg.SecondaryURL},
	}

	var sources []source.Client
	for _, ep := range endpoints {
		if ep.url == "" {
			continue
		}
		client, err := source.NewHTTPClient(source.HTTPClientConfig{
			Name:            ep.name,
			Kind:            ep.kind,
			URL:             ep.url,
			Timeout:         cfg.Timeout,
			BreakerFailures: cfg.BreakerFailures,
			BreakerCooldown: cfg.BreakerCooldown,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s source: %w", ep.name, err)
		}
		sources = append(sources, client)
	}
	return sources, nil
}

func (e *Engine) buildReportHistory(cfg *config.Config, logger *logging.Logger) (detection.ReportHistoryLookup, error) {
	if cfg.ReportHistory.Backend != "postgres" {
		logger.Info("Report history disabled, reportHistory signal scores zero")
		return detection.NoReportHistory{}, nil
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	e.postgres = postgres

	var lookup detection.ReportHistoryLookup = storage.NewWalletReportRepository(postgres)

	if cfg.Database.Redis.Enabled {
		redis, err := storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			// the cache is optional
			logger.WithError(err).Warn("Redis unavailable, report history served uncached")
			return lookup, nil
		}
		e.redis = redis
		lookup = storage.NewCachedReportHistory(lookup, storage.NewCacheService(redis, cfg.ReportHistory.CacheTTL))
	}

	logger.WithField("cached", e.redis != nil).Info("Report history backed by Postgres")
	return lookup, nil
}

// Close releases database connections
func (e *Engine) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.postgres != nil {
		e.postgres.Close()
	}
}
