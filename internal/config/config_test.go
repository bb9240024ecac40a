package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "CORS_ALLOWED_ORIGINS", "BLOCK_PRIVATE_TARGETS", "LOG_LEVEL", "LOG_FORMAT",
		"DB_DRIVER", "DB_PATH", "DB_DSN", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASS", "DB_NAME", "DB_SSLMODE", "DB_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Greater(t, cfg.Server.WriteTimeout.Seconds(), 30.0)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "./database.sqlite", cfg.DB.DSN)
	assert.False(t, cfg.Executor.BlockPrivateTargets)
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoadConfigPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "suar")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "history")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=6543 user=suar password=secret dbname=history sslmode=disable", cfg.DB.DSN)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BLOCK_PRIVATE_TARGETS", "true")
	t.Setenv("DB_PATH", "/tmp/history.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Executor.BlockPrivateTargets)
	assert.Equal(t, "/tmp/history.db", cfg.DB.DSN)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad driver":  {"DB_DRIVER": "oracle"},
		"bad db port": {"DB_DRIVER": "postgres", "DB_PORT": "abc"},
		"bad bool":    {"BLOCK_PRIVATE_TARGETS": "sometimes"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
