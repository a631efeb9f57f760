package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(3000), cfg.StartingBalance)
	assert.Equal(t, int64(10), cfg.WagerStake)
	assert.Equal(t, time.Minute, cfg.SettlementInterval)
	assert.Equal(t, 2*time.Second, cfg.IntakeLockTimeout)
	assert.Equal(t, 60, cfg.ForecastDepth)
	assert.Equal(t, "images", cfg.ChartDir)
	assert.Equal(t, 45*time.Second, cfg.SettlementLeaseTTL)
	assert.False(t, cfg.BotEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("DATABASE_NAME", "zhigul")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("STARTING_BALANCE", "500")
	t.Setenv("WAGER_STAKE", "25")
	t.Setenv("SETTLEMENT_INTERVAL", "10m")
	t.Setenv("FORECAST_DEPTH", "45")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.StartingBalance)
	assert.Equal(t, int64(25), cfg.WagerStake)
	assert.Equal(t, 10*time.Minute, cfg.SettlementInterval)
	assert.Equal(t, 45, cfg.ForecastDepth)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, "postgres://localhost:5432/zhigul?sslmode=disable", cfg.GetDatabaseURL())
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DATABASE_URL", "")
		_, err := load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("SETTLEMENT_INTERVAL", "soon")
		_, err := load()
		assert.ErrorContains(t, err, "SETTLEMENT_INTERVAL")
	})

	t.Run("lease outlives interval", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("SETTLEMENT_LEASE_TTL", "2m")
		_, err := load()
		assert.ErrorContains(t, err, "SETTLEMENT_LEASE_TTL")
	})

	t.Run("window too small for features", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("FORECAST_DEPTH", "20")
		_, err := load()
		assert.ErrorContains(t, err, "FORECAST_DEPTH")
	})
}

func TestSetTestConfig(t *testing.T) {
	t.Cleanup(ResetConfig)

	cfg := NewTestConfig()
	cfg.WagerStake = 42
	SetTestConfig(cfg)

	assert.Equal(t, int64(42), Get().WagerStake)
}

func TestCycleSpacing(t *testing.T) {
	assert.Equal(t, 59*time.Second, CycleSpacing(time.Minute))
	assert.Equal(t, 9*time.Minute+59*time.Second, CycleSpacing(10*time.Minute))
	assert.Equal(t, 9500*time.Millisecond, CycleSpacing(10*time.Second))
}
