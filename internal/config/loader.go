package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "browser-memory.yaml"

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML unmarshals the file over cfg. A missing file is not an error.
func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays non-empty environment variables onto cfg.
func loadEnv(cfg *Config) {
	setString(&cfg.Store.Path, "BROWSER_MEMORY_DB")
	setInt64(&cfg.Store.IndexSize, "BROWSER_MEMORY_INDEX_SIZE")
	setString(&cfg.Logging.Level, "BROWSER_MEMORY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "BROWSER_MEMORY_LOG_SERVICE")
	setString(&cfg.Server.Addr, "BROWSER_MEMORY_ADDR")
	setDuration(&cfg.Server.ShutdownTimeout, "BROWSER_MEMORY_SHUTDOWN_TIMEOUT")
	setDuration(&cfg.Cleanup.OlderThan, "BROWSER_MEMORY_CLEANUP_OLDER_THAN")
	setFloat64(&cfg.Cleanup.MinImportance, "BROWSER_MEMORY_CLEANUP_MIN_IMPORTANCE")
}

func validate(cfg *Config) error {
	if cfg.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if cfg.Store.IndexSize < 1 {
		return errors.New("store.index_size must be >= 1")
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.Cleanup.OlderThan < 0 {
		return errors.New("cleanup.older_than must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
