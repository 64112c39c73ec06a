package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "UAH", cfg.Business.FallbackCurrency)
	assert.Equal(t, 4, cfg.Business.AggregateConcurrency)
	assert.Equal(t, 50, cfg.Business.FeedSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Redis.VisitorTTL)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "storefront-order-events", cfg.Kafka.TopicOrder)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Empty(t, cfg.Auth.SeedAdminEmail)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FALLBACK_CURRENCY", "EUR")
	t.Setenv("AGGREGATE_CONCURRENCY", "8")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "pw")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "EUR", cfg.Business.FallbackCurrency)
	assert.Equal(t, 8, cfg.Business.AggregateConcurrency)
	assert.Equal(t, 15*time.Minute, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "admin@example.com", cfg.Auth.SeedAdminEmail)
	assert.Equal(t, "pw", cfg.Auth.SeedAdminPassword)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_KEY", "value")

	assert.Equal(t, "value", getEnv("STOREFRONT_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("STOREFRONT_MISSING_KEY", "fallback"))
}
