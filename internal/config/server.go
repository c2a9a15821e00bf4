package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPort            = "PORT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)

type ServerConfig struct {
	Port            string   `toml:"port"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
	CORSOrigins     []string `toml:"cors_origins"`
	shutdownTimeout time.Duration
}

func (c *ServerConfig) Addr() string {
	return ":" + c.Port
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return c.shutdownTimeout
}

func (c *ServerConfig) Finalize() error {
	if v := os.Getenv(EnvPort); v != "" {
		c.Port = v
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}

	if c.Port == "" {
		c.Port = "3000"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "15s"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	if n, err := strconv.Atoi(c.Port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	c.shutdownTimeout = d
	return nil
}
