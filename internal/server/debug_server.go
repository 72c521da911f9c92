package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/partition"
)

// DebugServer serves Prometheus metrics and routing diagnostics via HTTP
type DebugServer struct {
	httpServer *http.Server
	cache      *partition.Cache
	logger     *zap.Logger
}

// DebugServerConfig holds configuration for the debug server
type DebugServerConfig struct {
	Port int
	Path string
}

// NewDebugServer creates a new debug server
func NewDebugServer(cfg *DebugServerConfig, cache *partition.Cache, logger *zap.Logger) *DebugServer {
	mux := http.NewServeMux()

	s := &DebugServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/routes", s.routesHandler)

	return s
}

// Start starts the debug server
func (s *DebugServer) Start() error {
	s.logger.Info("Starting debug server", zap.String("addr", s.httpServer.Addr))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Debug server failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the debug server
func (s *DebugServer) Stop() error {
	s.logger.Info("Stopping debug server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("debug server shutdown failed: %w", err)
	}
	return nil
}

// healthHandler handles health check requests
func (s *DebugServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s","load_count":%d}`,
		time.Now().Format(time.RFC3339), s.cache.LoadCount())
}

// routesHandler dumps the current routing snapshot
func (s *DebugServer) routesHandler(w http.ResponseWriter, r *http.Request) {
	routes := s.cache.RouteTable()
	if routes == nil {
		routes = []partition.TableRoutes{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(routes); err != nil {
		s.logger.Error("Failed to encode route table", zap.Error(err))
	}
}
