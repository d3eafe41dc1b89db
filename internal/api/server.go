// Package api exposes the analysis coordinator and acquisition state over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/metrics"
	"github.com/fraud-signal-engine/internal/source"
	"github.com/fraud-signal-engine/internal/types"
)

// Analyzer produces risk verdicts
type Analyzer interface {
	Analyze(ctx context.Context, address, reason, requestedBy string) *types.RiskVerdict
}

// SnapshotManager exposes the acquisition layer
type SnapshotManager interface {
	GetTransactions(ctx context.Context, forceRefresh bool) (*types.TransactionSnapshot, error)
	Current() *types.TransactionSnapshot
	SourceHealth() []source.Health
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	analyzer   Analyzer
	snapshots  SnapshotManager
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestsPerSecond int
	Burst             int
}

// DefaultServerConfig returns timeouts that leave room for a full fallback pass
func DefaultServerConfig(host, port string) *ServerConfig {
	return &ServerConfig{
		Host:              host,
		Port:              port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		RequestsPerSecond: 10,
		Burst:             20,
	}
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, analyzer Analyzer, snapshots SnapshotManager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		analyzer:  analyzer,
		snapshots: snapshots,
		config:    config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// order matters: request ID first so every later log line carries it
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(MetricsMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(rateLimiter))

	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/wallets/{address}/risk", s.handleWalletRisk).Methods("GET")
	api.HandleFunc("/snapshot", s.handleGetSnapshot).Methods("GET")
	api.HandleFunc("/snapshot/refresh", s.handleRefreshSnapshot).Methods("POST")
	api.HandleFunc("/sources/health", s.handleSourceHealth).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "fraud-signal-engine",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
