package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/funplay")
	t.Setenv("AUTH_URL", "https://auth.example.com/")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, "https://auth.example.com", cfg.AuthURL)
	assert.Equal(t, int64(56), cfg.Chain.ChainID)
	assert.Equal(t, uint8(18), cfg.Chain.DefaultDecimals)
	assert.Equal(t, 90*time.Second, cfg.Chain.ConfirmTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Reconciler.StaleAfter)
	assert.Equal(t, 50, cfg.Reconciler.BatchSize)
	assert.False(t, cfg.Receipts.Enabled())
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "AUTH_URL")
}

func TestLoadRejectsStaleWindowShorterThanConfirmation(t *testing.T) {
	setRequired(t)
	t.Setenv("CHAIN_CONFIRM_TIMEOUT", "3m")
	t.Setenv("RECONCILE_STALE_AFTER", "2m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECONCILE_STALE_AFTER")
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", "https://play.fun.rich, https://admin.fun.rich ,")
	t.Setenv("CHAIN_ID", "97")
	t.Setenv("CHAIN_TOKEN_DEFAULT_DECIMALS", "3")
	t.Setenv("R2_RECEIPTS_BUCKET", "claim-receipts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://play.fun.rich", "https://admin.fun.rich"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(97), cfg.Chain.ChainID)
	assert.Equal(t, uint8(3), cfg.Chain.DefaultDecimals)
	assert.True(t, cfg.Receipts.Enabled())
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("RECONCILE_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECONCILE_INTERVAL")
}
