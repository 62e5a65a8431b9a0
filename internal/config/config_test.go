package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, 256, cfg.Server.WebSocket.SendBuffer)
	assert.Equal(t, 5, cfg.Server.WebSocket.MaxDecodeErrors)
	assert.Equal(t, time.Second, cfg.Server.LockTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  lock_timeout: 250ms
  grpc:
    address: ":7000"
storage:
  driver: redis
  redis:
    addr: "cache:6379"
    prefix: "gtr:"
logging:
  format: json
`)
	t.Setenv("CLOACA_STORAGE_REDIS_DB", "3")
	t.Setenv("CLOACA_AUTH_TOKEN_SECRET", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Server.LockTimeout)
	assert.Equal(t, ":7000", cfg.Server.GRPC.Address)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "gtr:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 3, cfg.Storage.Redis.DB)
	assert.Equal(t, "hunter2", cfg.Auth.TokenSecret)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: mongo\n"},
		{"postgres without dsn", "storage:\n  driver: postgres\n  dsn: \"\"\n"},
		{"zero lock timeout", "server:\n  lock_timeout: 0s\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
