package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("TICKET_NUMBER_MAX_RETRIES", "")
	t.Setenv("STORAGE_MAX_BYTES", "")
	t.Setenv("APP_HOST", "")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "")
	t.Setenv("TICKET_AUTO_CLOSE_CRON", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 5, cfg.Ticketing.NumberMaxRetries)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxBytes)
	assert.Equal(t, 5*time.Second, cfg.Notification.Timeout)
	assert.Equal(t, "@hourly", cfg.Ticketing.AutoCloseCron)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TICKET_NUMBER_MAX_RETRIES", "8")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "2")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 8, cfg.Ticketing.NumberMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Notification.Timeout)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoad_RejectsInvalidRetries(t *testing.T) {
	t.Setenv("TICKET_NUMBER_MAX_RETRIES", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "abc")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
	assert.Equal(t, 3*time.Second, AppConfig{RequestTimeoutSeconds: 3}.RequestTimeout())
}
