package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Event bus backends
const (
	EventsMemory = "memory"
	EventsRedis  = "redis"
)

// Config holds all configuration for the submodel repository
type Config struct {
	// Server configuration
	HTTPPort     int    `env:"SMREPO_HTTP_PORT" envDefault:"8080"`
	GRPCPort     int    `env:"SMREPO_GRPC_PORT" envDefault:"9090"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"4194304"`

	// Backends
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	EventsBackend  string `env:"EVENTS_BACKEND" envDefault:"memory"`

	// SQLite configuration
	SQLite SQLiteConfig

	// SeedFile is a JSON array of submodels loaded at startup
	SeedFile string `env:"SUBMODELS_SEED_FILE"`

	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"30s"`

	// Redis configuration
	Redis RedisConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// SQLiteConfig holds SQLite store configuration
type SQLiteConfig struct {
	Path        string        `env:"SQLITE_PATH" envDefault:"smrepo.db"`
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5s"`
	// Pragmas run on every connection, separated by ";"
	Pragmas []string `env:"SQLITE_PRAGMAS" envSeparator:";" envDefault:"synchronous = NORMAL;temp_store = MEMORY"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Event stream settings. An empty consumer group broadcasts every
	// event to every subscriber. With a consumer group each event reaches
	// one subscriber of the group, so the websocket stream only delivers
	// it to one connected client; leave it empty when serving websockets.
	ConsumerGroup string `env:"REDIS_EVENTS_CONSUMER_GROUP"`
	StreamMaxLen  int64  `env:"REDIS_EVENTS_MAX_LEN" envDefault:"10000"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ReadTimeout     time.Duration `env:"TIMEOUT_HTTP_READ" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"TIMEOUT_HTTP_WRITE" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ: %d", c.HTTPPort)
	}

	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("max body bytes must be positive")
	}
	if c.HealthCheckInterval <= 0 {
		return fmt.Errorf("health check interval must be positive")
	}

	switch c.StorageBackend {
	case StorageMemory, StorageRedis:
	case StorageSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s (must be memory, redis, or sqlite)", c.StorageBackend)
	}

	switch c.EventsBackend {
	case EventsMemory, EventsRedis:
	default:
		return fmt.Errorf("unsupported events backend: %s (must be memory or redis)", c.EventsBackend)
	}

	// Validate Redis config
	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.SQLite.BusyTimeout < 0 {
		return fmt.Errorf("sqlite busy timeout must not be negative")
	}
	if c.Redis.StreamMaxLen < 0 {
		return fmt.Errorf("redis stream max length must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == StorageRedis || c.EventsBackend == EventsRedis
}

// BroadcastsEvents reports whether every event subscriber, including each
// websocket client, receives every event
func (c *Config) BroadcastsEvents() bool {
	return c.EventsBackend != EventsRedis || c.Redis.ConsumerGroup == ""
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
