package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvPaginationDefaultPerPage = "PAGINATION_DEFAULT_PER_PAGE"
	EnvPaginationMaxPerPage     = "PAGINATION_MAX_PER_PAGE"
)

type PaginationConfig struct {
	DefaultPerPage int `toml:"default_per_page"`
	MaxPerPage     int `toml:"max_per_page"`
}

func (c *PaginationConfig) Finalize() error {
	if v := os.Getenv(EnvPaginationDefaultPerPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPaginationDefaultPerPage, err)
		}
		c.DefaultPerPage = n
	}
	if v := os.Getenv(EnvPaginationMaxPerPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPaginationMaxPerPage, err)
		}
		c.MaxPerPage = n
	}

	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = 10
	}
	if c.MaxPerPage <= 0 {
		c.MaxPerPage = 100
	}
	if c.DefaultPerPage > c.MaxPerPage {
		return fmt.Errorf("default_per_page cannot exceed max_per_page")
	}
	return nil
}
