package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devrev/pairdb/driver/internal/errors"
)

// RoutingConfig holds routing cache configuration
type RoutingConfig struct {
	// RefreshInterval is the periodic reload interval. A negative value
	// disables periodic refresh; event-triggered reloads still occur.
	// Zero means unset and selects the default.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	ReloadQueueSize int           `yaml:"reload_queue_size"`
}

// GossipConfig holds the memberlist-backed topology event source configuration
type GossipConfig struct {
	Enabled        bool          `yaml:"enabled"`
	NodeName       string        `yaml:"node_name"`
	BindPort       int           `yaml:"bind_port"`
	SeedNodes      []string      `yaml:"seed_nodes"`
	GossipInterval time.Duration `yaml:"gossip_interval"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	ProbeInterval  time.Duration `yaml:"probe_interval"`
}

// CatalogConfig holds the etcd-backed cluster catalog configuration
type CatalogConfig struct {
	Endpoints   []string      `yaml:"endpoints"`
	Prefix      string        `yaml:"prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// MetricsConfig holds the debug/metrics server configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the complete configuration for the routing cache
type Config struct {
	Routing RoutingConfig `yaml:"routing"`
	Gossip  GossipConfig  `yaml:"gossip"`
	Catalog CatalogConfig `yaml:"catalog"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoadConfig loads configuration from a file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for unspecified configuration
func setDefaults(cfg *Config) {
	if cfg.Routing.RefreshInterval == 0 {
		cfg.Routing.RefreshInterval = 60 * time.Second
	}
	if cfg.Routing.ReloadQueueSize == 0 {
		cfg.Routing.ReloadQueueSize = 16
	}

	if cfg.Gossip.BindPort == 0 {
		cfg.Gossip.BindPort = 7946
	}
	if cfg.Gossip.GossipInterval == 0 {
		cfg.Gossip.GossipInterval = 200 * time.Millisecond
	}
	if cfg.Gossip.ProbeTimeout == 0 {
		cfg.Gossip.ProbeTimeout = 500 * time.Millisecond
	}
	if cfg.Gossip.ProbeInterval == 0 {
		cfg.Gossip.ProbeInterval = time.Second
	}

	if len(cfg.Catalog.Endpoints) == 0 {
		cfg.Catalog.Endpoints = []string{"127.0.0.1:2379"}
	}
	if cfg.Catalog.Prefix == "" {
		cfg.Catalog.Prefix = "/pairdb/cluster"
	}
	if cfg.Catalog.DialTimeout == 0 {
		cfg.Catalog.DialTimeout = 5 * time.Second
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9180
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gossip.Enabled && c.Gossip.NodeName == "" {
		return errors.InvalidConfig("gossip.node_name is required when gossip is enabled")
	}
	if c.Gossip.BindPort < 1 || c.Gossip.BindPort > 65535 {
		return errors.InvalidConfig("gossip.bind_port must be between 1 and 65535")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.InvalidConfig("metrics.port must be between 1 and 65535")
	}
	if c.Routing.ReloadQueueSize < 1 {
		return errors.InvalidConfig("routing.reload_queue_size must be positive")
	}
	return nil
}
