package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESTOCK_ON_REFUND", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Business.RestockOnRefund)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.Business.OrderCacheTTL())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RESTOCK_ON_REFUND", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("IDEMPOTENCY_TTL_HOURS", "2")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DEFAULT_LANGUAGE", "ja_JP")

	cfg := Load()
	assert.True(t, cfg.Business.RestockOnRefund)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Hour, cfg.Business.IdempotencyTTL())
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, "ja_JP", cfg.I18n.DefaultLanguage)
}

func TestValidateProductionSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	require.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "a-real-secret"
	assert.NoError(t, cfg.Validate())
}
