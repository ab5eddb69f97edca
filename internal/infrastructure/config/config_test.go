package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("PAY_NETWORKS", "")
	t.Setenv("SETTLEMENT_WORKER_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, []string{"base-sepolia"}, cfg.PayNetworks)
	assert.True(t, cfg.WorkerEnabled)
	assert.Equal(t, 30*time.Second, cfg.SettleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ProcessingMaxAge)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("PAY_NETWORKS", "base, solana-devnet ,")
	t.Setenv("SETTLEMENT_PROCESS_INLINE", "yes")
	t.Setenv("DEV_SETTLE_ENABLED", "ON")
	t.Setenv("SETTLEMENT_SETTLE_TIMEOUT", "45")
	t.Setenv("SETTLEMENT_POLL_INTERVAL", "500ms")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("FACILITATOR_URL", "http://facilitator:4000/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"base", "solana-devnet"}, cfg.PayNetworks)
	assert.True(t, cfg.ProcessInline)
	assert.True(t, cfg.DevSettleEnabled)
	assert.Equal(t, 45*time.Second, cfg.SettleTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "http://facilitator:4000", cfg.FacilitatorURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("store backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "memory")
		t.Setenv("NONCE_CACHE_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "NONCE_CACHE_TTL")
	})

	t.Run("max age not above settle timeout", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "memory")
		t.Setenv("SETTLEMENT_SETTLE_TIMEOUT", "1s")
		t.Setenv("SETTLEMENT_PROCESSING_MAX_AGE", "50ms")
		_, err := Load()
		assert.ErrorContains(t, err, "SETTLEMENT_PROCESSING_MAX_AGE")
	})

	t.Run("max age equal to settle timeout", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "memory")
		t.Setenv("SETTLEMENT_SETTLE_TIMEOUT", "30s")
		t.Setenv("SETTLEMENT_PROCESSING_MAX_AGE", "30s")
		_, err := Load()
		assert.ErrorContains(t, err, "SETTLEMENT_PROCESSING_MAX_AGE")
	})

	t.Run("max age not above facilitator timeout", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "memory")
		t.Setenv("SETTLEMENT_SETTLE_TIMEOUT", "5s")
		t.Setenv("FACILITATOR_TIMEOUT", "2m")
		t.Setenv("SETTLEMENT_PROCESSING_MAX_AGE", "1m")
		_, err := Load()
		assert.ErrorContains(t, err, "FACILITATOR_TIMEOUT")
	})
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		t.Setenv("FLAG", v)
		assert.True(t, envBool("FLAG", false), v)
	}
	t.Setenv("FLAG", "nope")
	assert.False(t, envBool("FLAG", true))
	t.Setenv("FLAG", "")
	assert.True(t, envBool("FLAG", true))
}
