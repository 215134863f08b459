// Package config loads the sherpa-sync YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig holds the Redis connection settings for bookmarks and health
// state.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the full sherpa-sync configuration.
type Config struct {
	// Endpoint is the Sherpa SOAP service URL.
	Endpoint string `yaml:"endpoint"`

	// SecurityCode is the Sherpa service credential.
	SecurityCode string `yaml:"securityCode"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"userAgent"`

	// ChunkSize is the page size for paginated operations.
	ChunkSize int `yaml:"chunkSize"`

	// WarehouseGroupCode parameterizes the warehouse-group stock stream.
	WarehouseGroupCode string `yaml:"warehouseGroupCode"`

	// Streams selects top-level streams by name; empty selects all.
	Streams []string `yaml:"streams"`

	Redis RedisConfig `yaml:"redis"`

	HTTP struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Metrics struct {
		// Addr is the listen address for /metrics and /health. Empty
		// disables the HTTP server.
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a configuration with defaults applied.
func Default() Config {
	cfg := Config{
		UserAgent: "sherpa-sync/1.0",
		ChunkSize: 200,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
	cfg.HTTP.Timeout = 30 * time.Second
	cfg.Log.Level = "info"
	return cfg
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.SecurityCode == "" {
		return fmt.Errorf("securityCode is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunkSize must be positive (got %d)", c.ChunkSize)
	}
	return nil
}
