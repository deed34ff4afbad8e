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

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "wrap-wonders-store", cfg.Storage.Key)
	assert.Equal(t, 5*time.Second, cfg.Store.NotificationTTL)
	assert.Equal(t, "50", cfg.Store.FreeShippingThreshold.String())
	assert.Equal(t, "9.99", cfg.Store.StandardShippingFee.String())
	assert.Equal(t, "1.2", cfg.Store.PriceMarkup.String())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.Empty(t, cfg.Store.CustomersFile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE", "redis")
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NOTIFICATION_TTL", "750ms")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "75.5")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_CONNECT_TIMEOUT", "30s")
	t.Setenv("CUSTOMERS_SEED_FILE", "/etc/storefront/customers.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.NotificationTTL)
	assert.Equal(t, "75.5", cfg.Store.FreeShippingThreshold.String())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "/etc/storefront/customers.yaml", cfg.Store.CustomersFile)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("NOTIFICATION_TTL", "soon")
	t.Setenv("STANDARD_SHIPPING_FEE", "-4")
	t.Setenv("PRICE_MARKUP", "lots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Zero(t, cfg.Redis.DB)
	assert.Equal(t, 5*time.Second, cfg.Store.NotificationTTL)
	assert.Equal(t, "9.99", cfg.Store.StandardShippingFee.String())
	assert.Equal(t, "1.2", cfg.Store.PriceMarkup.String())
}
