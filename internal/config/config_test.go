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

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "9090")
	t.Setenv("HARRIS_VALE_API_URL", "https://api.harrisvale.example")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://harrisvale.example")
	t.Setenv("CATALOG_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "https://api.harrisvale.example", cfg.BackendURL)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "99999")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidBackendURL(t *testing.T) {
	t.Setenv("HARRIS_VALE_API_URL", "not-a-url")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBurstBelowRPS(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "20")
	t.Setenv("RATE_LIMIT_BURST", "5")
	_, err := Load()
	assert.Error(t, err)
}
