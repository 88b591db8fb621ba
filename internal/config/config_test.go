package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/api/twelvedata"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR/USD", "GBP/USD", "USD/JPY"}, cfg.Pairs)
	assert.Equal(t, "15m", cfg.Timeframe)
	assert.Equal(t, "4h", cfg.HTFTimeframe)
	assert.Equal(t, []string{"15m"}, cfg.EntryTimeframes)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10000.0, cfg.InitialBalance)
	assert.False(t, cfg.LogJSON)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAIRS", " EUR/USD , XAU/USD,")
	t.Setenv("CANDLE_COUNT", "250")
	t.Setenv("ENTRY_TIMEFRAMES", "15m,5m")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("LOG_JSON", "yes")
	t.Setenv("SCAN_WORKERS", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR/USD", "XAU/USD"}, cfg.Pairs)
	assert.Equal(t, 250, cfg.CandleCount)
	assert.Equal(t, []string{"15m", "5m"}, cfg.EntryTimeframes)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 4, cfg.ScanWorkers)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	path := writeFile(t, ".env", "TIMEFRAME=1h\nHTF_TIMEFRAME=1d\n")
	t.Setenv("TIMEFRAME", "5m")
	t.Setenv("HTF_TIMEFRAME", "")
	require.NoError(t, os.Unsetenv("HTF_TIMEFRAME"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "5m", cfg.Timeframe)
	assert.Equal(t, "1d", cfg.HTFTimeframe)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("TIMEFRAME", "7m")
	t.Setenv("CANDLE_COUNT", "5")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "7m")
	assert.Contains(t, err.Error(), "CANDLE_COUNT")
}

func TestLoadTimeframesMatchFeed(t *testing.T) {
	t.Setenv("TIMEFRAME", "2h")
	t.Setenv("HTF_TIMEFRAME", "8h")
	t.Setenv("ENTRY_TIMEFRAMES", "45m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	for _, tf := range append([]string{cfg.Timeframe, cfg.HTFTimeframe, cfg.LTFTimeframe}, cfg.EntryTimeframes...) {
		_, err := twelvedata.Interval(tf)
		assert.NoError(t, err, tf)
	}

	t.Setenv("LTF_TIMEFRAME", "3h")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"3h"`)
}

func TestRequestTimeoutFormats(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 30 * time.Second},
		{"5", 5 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"2m", 2 * time.Minute},
		{"soon", 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("REQUEST_TIMEOUT", tt.value)
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RequestTimeout)
		})
	}

	t.Setenv("REQUEST_TIMEOUT", "-1s")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "REQUEST_TIMEOUT")
}

func TestLoadStrategy(t *testing.T) {
	cfg, err := LoadStrategy("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStrategyConfig(), cfg)

	path := writeFile(t, "strategy.yaml", "risk_percentage: 1.5\nfvg_trading: false\nmin_confidence: 80\n")
	cfg, err = LoadStrategy(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.RiskPercentage)
	assert.False(t, cfg.FVGTrading)
	assert.True(t, cfg.BOSConfirmation)
	assert.Equal(t, 20.0, cfg.StopLossPips)
	assert.InDelta(t, 0.8, cfg.ConfidenceFloor(), 1e-12)

	empty := writeFile(t, "empty.yaml", "")
	cfg, err = LoadStrategy(empty)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultStrategyConfig(), cfg)
}

func TestLoadStrategyRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field": "risk_percentage: 1\ntrailing_stop: true\n",
		"bad type":      "stop_loss_pips: twenty\n",
		"invalid value": "take_profit_pips: -5\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadStrategy(writeFile(t, "strategy.yaml", content))
			assert.ErrorIs(t, err, models.ErrInvalidStrategy)
		})
	}

	_, err := LoadStrategy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
