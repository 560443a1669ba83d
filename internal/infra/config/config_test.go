package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"APP_ENV", "HTTP_ADDR", "STORAGE_MODE", "MONGO_URI", "MONGO_DB", "KAFKA_BROKERS",
	"KAFKA_TOPIC_PREFIX", "KAFKA_GROUP_ID", "IDEMP_TTL", "OUTBOX_POLL_INTERVAL", "RETRY_BACKOFF",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SNAPSHOT_CACHE_TTL", "S3_ENDPOINT",
	"S3_PUBLIC_ENDPOINT", "S3_BUCKET", "S3_USE_SSL", "RECOMPUTE_SCHEDULE", "QUOTE_RATE_LIMIT",
	"QUOTE_RATE_BURST", "ADMIN_TOKEN", "PREVIEW_ROWS", "PROPERTY_FIXTURES", "DEFAULT_CURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFiles(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 12, cfg.PreviewRows)
	assert.Equal(t, 20, cfg.QuoteRateBurst)
	assert.InDelta(t, 10.0, cfg.QuoteRateLimit, 0.0001)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "STORAGE_MODE=mongo\nMONGO_URI=mongodb://localhost:27017\nKAFKA_BROKERS=a:9092, b:9092\nREDIS_DB=2\nS3_USE_SSL=yes\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	// godotenv never overrides variables that are already set, so drop the blanks first.
	for _, k := range []string{"STORAGE_MODE", "MONGO_URI", "KAFKA_BROKERS", "REDIS_DB", "S3_USE_SSL"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range []string{"STORAGE_MODE", "MONGO_URI", "KAFKA_BROKERS", "REDIS_DB", "S3_USE_SSL"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, StorageMongo, cfg.StorageMode)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.S3UseSSL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"mongo without uri": {"STORAGE_MODE": "mongo"},
		"unknown storage":   {"STORAGE_MODE": "sqlite"},
		"bad duration":      {"IDEMP_TTL": "forever"},
		"bad backoff":       {"RETRY_BACKOFF": "1s,soon"},
		"bad bool":          {"S3_USE_SSL": "maybe"},
		"bad int":           {"PREVIEW_ROWS": "ten"},
		"bad currency":      {"DEFAULT_CURRENCY": "EURO"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadFiles()
			assert.Error(t, err)
		})
	}
}
