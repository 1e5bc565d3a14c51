// Package config loads runtime configuration from the environment.
// Values are read once at process start.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/logging"
)

// Log holds logging settings shared by both binaries.
type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
	File   string `envconfig:"LOG_FILE"`
}

// Logging converts the settings into a logging.Config.
func (l Log) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(l.Level)
	cfg.Pretty = l.Pretty
	return cfg
}

// Client configures the itemlist client.
type Client struct {
	APIBase        string        `envconfig:"API_BASE" default:"http://127.0.0.1:8000"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"item-list-client/0.1.0"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`
	PageSize       int           `envconfig:"PAGE_SIZE" default:"10"`

	Log
}

// Server configures the items-api collection service.
type Server struct {
	Addr            string        `envconfig:"ADDR" default:":8000"`
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	RedisKey        string        `envconfig:"REDIS_KEY" default:"catalog:items"`
	SeedItems       int           `envconfig:"SEED_ITEMS" default:"150"`
	RateLimitPerMin int           `envconfig:"RATE_LIMIT_PER_MIN" default:"600"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Log
}

// LoadClient reads the client configuration.
func LoadClient() (*Client, error) {
	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if cfg.RequestTimeout < 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be >= 0 (got %s)", cfg.RequestTimeout)
	}
	if _, err := listing.ParsePageSize(cfg.PageSize); err != nil {
		return nil, fmt.Errorf("PAGE_SIZE: %w", err)
	}
	return &cfg, nil
}

// LoadServer reads the server configuration.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if cfg.SeedItems < 0 {
		return nil, fmt.Errorf("SEED_ITEMS must be >= 0 (got %d)", cfg.SeedItems)
	}
	if cfg.RateLimitPerMin < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MIN must be >= 0 (got %d)", cfg.RateLimitPerMin)
	}
	return &cfg, nil
}
