package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.GRPCPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, EventsMemory, cfg.EventsBackend)
	assert.Equal(t, int64(4<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
	assert.Empty(t, cfg.Redis.ConsumerGroup)
	assert.Equal(t, 5*time.Second, cfg.SQLite.BusyTimeout)
	assert.Equal(t, []string{"synchronous = NORMAL", "temp_store = MEMORY"}, cfg.SQLite.Pragmas)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, ":9090", cfg.GetGRPCAddr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SMREPO_HTTP_PORT", "8081")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/submodels.db")
	t.Setenv("SQLITE_PRAGMAS", "synchronous = FULL;cache_size = -8192")
	t.Setenv("EVENTS_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_EVENTS_CONSUMER_GROUP", "smrepo")
	t.Setenv("SUBMODELS_SEED_FILE", "/etc/smrepo/seed.json")
	t.Setenv("HEALTH_CHECK_INTERVAL", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, "/tmp/submodels.db", cfg.SQLite.Path)
	assert.Equal(t, []string{"synchronous = FULL", "cache_size = -8192"}, cfg.SQLite.Pragmas)
	assert.Equal(t, EventsRedis, cfg.EventsBackend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "smrepo", cfg.Redis.ConsumerGroup)
	assert.Equal(t, "/etc/smrepo/seed.json", cfg.SeedFile)
	assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval)
	assert.True(t, cfg.UsesRedis())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "bad http port",
			env:    map[string]string{"SMREPO_HTTP_PORT": "70000"},
			errMsg: "invalid HTTP port",
		},
		{
			name:   "ports collide",
			env:    map[string]string{"SMREPO_HTTP_PORT": "9090"},
			errMsg: "must differ",
		},
		{
			name:   "unknown storage backend",
			env:    map[string]string{"STORAGE_BACKEND": "postgres"},
			errMsg: "unsupported storage backend",
		},
		{
			name:   "unknown events backend",
			env:    map[string]string{"EVENTS_BACKEND": "kafka"},
			errMsg: "unsupported events backend",
		},
		{
			name:   "bad log level",
			env:    map[string]string{"LOG_LEVEL": "trace"},
			errMsg: "invalid log level",
		},
		{
			name:   "zero body limit",
			env:    map[string]string{"MAX_BODY_BYTES": "0"},
			errMsg: "max body bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateRequiresBackendSettings(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	sqliteCfg := *cfg
	sqliteCfg.StorageBackend = StorageSQLite
	sqliteCfg.SQLite.Path = ""
	assert.ErrorContains(t, sqliteCfg.Validate(), "sqlite path is required")

	redisCfg := *cfg
	redisCfg.EventsBackend = EventsRedis
	redisCfg.Redis.Addr = ""
	assert.ErrorContains(t, redisCfg.Validate(), "redis address is required")

	// Redis settings are ignored when no backend uses Redis.
	memoryCfg := *cfg
	memoryCfg.Redis.Addr = ""
	assert.NoError(t, memoryCfg.Validate())
}

func TestBroadcastsEvents(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BroadcastsEvents())

	cfg.EventsBackend = EventsRedis
	assert.True(t, cfg.BroadcastsEvents())

	cfg.Redis.ConsumerGroup = "smrepo"
	assert.False(t, cfg.BroadcastsEvents())

	// A consumer group only matters for the redis bus.
	cfg.EventsBackend = EventsMemory
	assert.True(t, cfg.BroadcastsEvents())
}
