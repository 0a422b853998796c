// Package config provides hierarchical configuration loading for browser-memory.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Store   Store   `yaml:"store"`
	Logging Logging `yaml:"logging"`
	Server  Server  `yaml:"server"`
	Cleanup Cleanup `yaml:"cleanup"`
}

// Store holds database configuration.
type Store struct {
	Path      string `yaml:"path"`
	IndexSize int64  `yaml:"index_size"` // Patterns held in the in-memory index
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Server holds HTTP server configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Cleanup holds the defaults for the cleanup command.
type Cleanup struct {
	OlderThan     time.Duration `yaml:"older_than"`
	MinImportance float64       `yaml:"min_importance"`
}

// Defaults returns a Config with sensible development defaults.
func Defaults() Config {
	return Config{
		Store: Store{
			Path:      defaultDBPath(),
			IndexSize: 100_000,
		},
		Logging: Logging{
			Level:   "info",
			Service: "browser-memory",
		},
		Server: Server{
			Addr:            "127.0.0.1:8377",
			ShutdownTimeout: 10 * time.Second,
		},
		Cleanup: Cleanup{
			OlderThan:     90 * 24 * time.Hour,
			MinImportance: 3.0,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "browser-memory.db"
	}
	return filepath.Join(home, ".browser-memory", "memory.db")
}
