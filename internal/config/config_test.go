package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET", "TOKEN_TTL", "NATS_URL",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "RETRY_ATTEMPTS", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Config reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/ledger.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.RetryAttempts)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"bad port", map[string]string{"JWT_SECRET": "s", "PORT": "http"}},
		{"bad ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "forever"}},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "postgres"}},
		{"zero retries", map[string]string{"JWT_SECRET": "s", "RETRY_ATTEMPTS": "0"}},
		{"admin email without password", map[string]string{"JWT_SECRET": "s", "ADMIN_EMAIL": "root@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nPORT=7070\nDB_DRIVER=postgres\nDATABASE_URL=postgres://localhost/ledger\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 9090, cfg.Port, "environment wins over .env")
	assert.Equal(t, "postgres", cfg.DBDriver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
