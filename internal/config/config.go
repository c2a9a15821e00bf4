// Package config loads service configuration from an optional TOML file,
// a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvAppEnv = "APP_ENV"

	// Production selects hosted mode: the server is driven by an external
	// request router instead of binding its own listener.
	Production = "production"
)

// Config is the root service configuration.
type Config struct {
	Env        string           `toml:"env"`
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Media      MediaConfig      `toml:"media"`
	Queue      QueueConfig      `toml:"queue"`
	Pagination PaginationConfig `toml:"pagination"`
}

// Hosted reports whether the process runs behind an external request router.
func (c *Config) Hosted() bool {
	return c.Env == Production
}

// Load reads path (if non-empty), applies .env and environment overrides,
// then fills defaults and validates.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies environment overrides and defaults, then validates every section.
func (c *Config) Finalize() error {
	if v := os.Getenv(EnvAppEnv); v != "" {
		c.Env = v
	}
	if c.Env == "" {
		c.Env = "development"
	}

	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Media.Finalize(c.Server.Port); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	c.Queue.Finalize()
	if err := c.Pagination.Finalize(); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}
