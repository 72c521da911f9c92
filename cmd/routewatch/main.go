package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devrev/pairdb/driver/internal/catalog"
	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/config"
	"github.com/devrev/pairdb/driver/internal/metrics"
	"github.com/devrev/pairdb/driver/internal/partition"
	"github.com/devrev/pairdb/driver/internal/server"
	"github.com/devrev/pairdb/driver/internal/source/gossip"
	"github.com/devrev/pairdb/driver/internal/util/workerpool"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.Duration("refresh_interval", cfg.Routing.RefreshInterval),
		zap.Strings("catalog_endpoints", cfg.Catalog.Endpoints),
		zap.Bool("gossip_enabled", cfg.Gossip.Enabled))

	// The catalog is both the metadata query collaborator and the
	// schema/topology view for the routing cache.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.New(ctx, &catalog.Config{
		Endpoints:   cfg.Catalog.Endpoints,
		Prefix:      cfg.Catalog.Prefix,
		DialTimeout: cfg.Catalog.DialTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cluster catalog", zap.Error(err))
	}
	defer cat.Close()

	m := metrics.NewMetrics("routewatch")

	pool := workerpool.New(&workerpool.Config{
		Name:      "routing-reload",
		Workers:   1,
		QueueSize: cfg.Routing.ReloadQueueSize,
		Logger:    logger,
	})
	defer pool.Stop(10 * time.Second)

	cache := partition.NewCache(m, logger)
	refresher := partition.NewRefresher(cache, pool, cfg.Routing.RefreshInterval, m, logger)
	bridge := partition.NewBridge(cache, refresher, logger)

	bridge.Register(cat)
	defer bridge.Unregister()

	// Bring the first snapshot in right away instead of waiting a full
	// refresh interval.
	refresher.Trigger("startup")

	// Watch the catalog for node and table lifecycle changes.
	go cat.Watch(ctx, bridge, bridge)

	// Optionally hear node liveness from the gossip mesh as well.
	if cfg.Gossip.Enabled {
		gossipSrc, err := gossip.NewSource(&gossip.Config{
			NodeName:       cfg.Gossip.NodeName,
			BindPort:       cfg.Gossip.BindPort,
			SeedNodes:      cfg.Gossip.SeedNodes,
			GossipInterval: cfg.Gossip.GossipInterval,
			ProbeTimeout:   cfg.Gossip.ProbeTimeout,
			ProbeInterval:  cfg.Gossip.ProbeInterval,
		}, cluster.TopologyListener(bridge), logger)
		if err != nil {
			logger.Error("Failed to initialize gossip source", zap.Error(err))
		} else {
			defer gossipSrc.Shutdown()
			logger.Info("Gossip source initialized")
		}
	}

	var debugSrv *server.DebugServer
	if cfg.Metrics.Enabled {
		debugSrv = server.NewDebugServer(&server.DebugServerConfig{
			Port: cfg.Metrics.Port,
			Path: cfg.Metrics.Path,
		}, cache, logger)
		if err := debugSrv.Start(); err != nil {
			logger.Fatal("Failed to start debug server", zap.Error(err))
		}
	}

	logger.Info("Route watcher started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	if debugSrv != nil {
		if err := debugSrv.Stop(); err != nil {
			logger.Error("Failed to stop debug server", zap.Error(err))
		}
	}
}

// initLogger builds the zap logger from the logging configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
