// Package config loads and validates beacon.yml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level beacon.yml configuration.
type Config struct {
	Version   string         `yaml:"version"`
	Instance  string         `yaml:"instance"`
	Redis     RedisConfig    `yaml:"redis"`
	Storage   StorageConfig  `yaml:"storage"`
	Sync      SyncConfig     `yaml:"sync"`
	Resources []ResourceSpec `yaml:"resources"`
}

// RedisConfig holds the shared Redis connection settings used by the bus
// transport and the Redis storage backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// StorageConfig selects the store persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "redis", "file" or "memory"
	Path    string `yaml:"path,omitempty"`
}

// SyncConfig tunes the coordinator.
type SyncConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	MaxRetries      int  `yaml:"max_retries"`
	AutoRefresh     bool `yaml:"auto_refresh"`

	// FallbackTransport switches the bus to the polling transport for
	// deployments where Redis Pub/Sub is unavailable.
	FallbackTransport bool `yaml:"fallback_transport,omitempty"`
}

// ResourceSpec names one resource collection endpoint the coordinator polls.
type ResourceSpec struct {
	Key string `yaml:"key"`
	URL string `yaml:"url"`
}

// Interval returns the auto-refresh period as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Sync.IntervalSeconds) * time.Second
}

// Validate performs strict validation on the configuration and applies
// defaults for optional settings.
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Instance == "" {
		c.Instance = "default"
	}

	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = "redis"
	case "redis", "memory":
	case "file":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (must be 'redis', 'file' or 'memory')", c.Storage.Backend)
	}

	if c.Storage.Backend == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.Sync.IntervalSeconds == 0 {
		c.Sync.IntervalSeconds = 30
	}
	if c.Sync.IntervalSeconds < 0 {
		return fmt.Errorf("sync.interval_seconds must be >= 0, got %d", c.Sync.IntervalSeconds)
	}
	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = 3
	}
	if c.Sync.MaxRetries < 0 {
		return fmt.Errorf("sync.max_retries must be >= 0, got %d", c.Sync.MaxRetries)
	}

	seen := make(map[string]bool, len(c.Resources))
	for i, res := range c.Resources {
		if res.Key == "" {
			return fmt.Errorf("resource %d: key is required", i)
		}
		if res.URL == "" {
			return fmt.Errorf("resource '%s': url is required", res.Key)
		}
		if seen[res.Key] {
			return fmt.Errorf("duplicate resource key '%s': resource keys must be unique", res.Key)
		}
		seen[res.Key] = true
	}

	return nil
}

// Load reads and validates beacon.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
