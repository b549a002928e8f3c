// Package config loads postboard settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all postboard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Search  SearchConfig  `yaml:"search"`
	Board   BoardConfig   `yaml:"board"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Driver   string         `yaml:"driver"` // memory, redis, postgres, sqlite
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig points at the service the board is seeded from.
type RemoteConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// SearchConfig configures the optional Elasticsearch mirror.
type SearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Index   string `yaml:"index"`
	// Timeout bounds each mirror call so a stalled cluster cannot hold up
	// board operations.
	Timeout string `yaml:"timeout"`
}

// BoardConfig picks the board policies.
type BoardConfig struct {
	// PersistEmpty writes "[]" when the last post is deleted. When false the
	// previous snapshot is left in place.
	PersistEmpty bool `yaml:"persist_empty"`
	// ResetPageOnSearch moves back to page 1 whenever the query changes.
	ResetPageOnSearch bool `yaml:"reset_page_on_search"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "postboard:",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "bloguser",
				Password: "blogpass",
				Name:     "blogdb",
				SSLMode:  "disable",
			},
			SQLite: SQLiteConfig{
				Path: filepath.Join("data", "postboard.db"),
			},
		},
		Remote: RemoteConfig{
			URL:     "https://jsonplaceholder.typicode.com/posts",
			Timeout: "10s",
		},
		Search: SearchConfig{
			Enabled: false,
			URL:     "http://localhost:9200",
			Index:   "posts",
			Timeout: "5s",
		},
		Board: BoardConfig{
			PersistEmpty:      true,
			ResetPageOnSearch: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}

	if driver := os.Getenv("POSTBOARD_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Storage.Redis.Addr = addr
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Storage.Postgres.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Storage.Postgres.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Storage.Postgres.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Storage.Postgres.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Storage.Postgres.Name = name
	}
	if path := os.Getenv("POSTBOARD_SQLITE_PATH"); path != "" {
		c.Storage.SQLite.Path = path
	}

	if url := os.Getenv("POSTBOARD_REMOTE_URL"); url != "" {
		c.Remote.URL = url
	}

	// Setting the Elasticsearch URL turns the mirror on
	if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
		c.Search.URL = url
		c.Search.Enabled = true
	}

	if level := os.Getenv("POSTBOARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// RemoteTimeout returns the remote fetch timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return parseDuration(c.Remote.Timeout, 10*time.Second)
}

// SearchTimeout returns the per-call timeout for the search mirror.
func (c *Config) SearchTimeout() time.Duration {
	return parseDuration(c.Search.Timeout, 5*time.Second)
}

// ShutdownTimeout returns how long the server waits for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	case DriverPostgres:
		if c.Storage.Postgres.Port <= 0 {
			return fmt.Errorf("storage.postgres.port must be positive")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Storage.Driver == DriverSQLite && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required")
	}
	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url is required")
	}
	if _, err := time.ParseDuration(c.Remote.Timeout); err != nil {
		return fmt.Errorf("invalid remote.timeout: %w", err)
	}
	if c.Search.Enabled && c.Search.Index == "" {
		return fmt.Errorf("search.index is required when search is enabled")
	}
	return nil
}
