package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvMongoURI      = "MONGODB_CONN_STRING"
	EnvMongoDatabase = "MONGODB_DATABASE"
	EnvMongoTimeout  = "MONGODB_TIMEOUT"
)

type DatabaseConfig struct {
	URI        string `toml:"uri"`
	Name       string `toml:"name"`
	Collection string `toml:"collection"`
	Timeout    string `toml:"timeout"`
	timeout    time.Duration
}

// TimeoutDuration is the server selection timeout for the initial connection.
func (c *DatabaseConfig) TimeoutDuration() time.Duration {
	return c.timeout
}

func (c *DatabaseConfig) Finalize() error {
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.URI = v
	}
	if v := os.Getenv(EnvMongoDatabase); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvMongoTimeout); v != "" {
		c.Timeout = v
	}

	if c.Name == "" {
		c.Name = "inkwell"
	}
	if c.Collection == "" {
		c.Collection = "articles"
	}
	if c.Timeout == "" {
		c.Timeout = "3s"
	}

	if c.URI == "" {
		return fmt.Errorf("%s required", EnvMongoURI)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	c.timeout = d
	return nil
}
