package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/MarketRegime/internal/regime"
	"github.com/Alias1177/MarketRegime/models"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"TICKERS", "HISTORY_BARS", "LOG_LEVEL", "DB_HOST", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "PUT_CALL_RATIO"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.DefaultTickers, cfg.Tickers)
	assert.Equal(t, 286, cfg.HistoryBars)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0 22 * * 1-5", cfg.WatchSchedule)
	assert.Equal(t, 0.0, cfg.PutCallRatio)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TICKERS", " spy, qqq ,,iwm")
	t.Setenv("HISTORY_BARS", "400")
	t.Setenv("REQUEST_TIMEOUT", "not-a-number")
	t.Setenv("PUT_CALL_RATIO", "0.95")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234567890")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "QQQ", "IWM"}, cfg.Tickers)
	assert.Equal(t, 400, cfg.HistoryBars)
	assert.Equal(t, 30, cfg.RequestTimeout, "unparsable values fall back to the default")
	assert.Equal(t, 0.95, cfg.PutCallRatio)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(-1001234567890), cfg.Telegram.ChatID)
}

func TestLoadThresholds(t *testing.T) {
	th, err := LoadThresholds("")
	require.NoError(t, err)
	assert.Equal(t, regime.DefaultThresholds(), th)

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ma200_distance_pct: 7.5
correction:
  min_below_ma50: 3
  drawdown:
    min: -20
aggressive_bull:
  sentiment:
    vix:
      max: 18
`), 0o600))

	th, err = LoadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 7.5, th.MA200DistancePct)
	assert.Equal(t, 3, th.Correction.MinBelowMA50)
	assert.True(t, th.Correction.Drawdown.Contains(-20))
	assert.False(t, th.Correction.Drawdown.Contains(-4), "max is kept from the defaults")
	assert.False(t, th.AggressiveBull.Sentiment.VIX.Contains(19))
	assert.Equal(t, 0.60, th.Bull.AdditionalThreshold, "untouched sections keep defaults")
}

func TestParseThresholds_Invalid(t *testing.T) {
	_, err := ParseThresholds([]byte("bull:\n  additional_threshold: 2\n"))
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	_, err = ParseThresholds([]byte("bul:\n  additional_threshold: 0.5\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = LoadThresholds(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseThresholds_Counts(t *testing.T) {
	th, err := ParseThresholds([]byte(`
aggressive_bull:
  min_above_ma50: 3
bear:
  min_below_ma200: 3
`))
	require.NoError(t, err)

	assert.Equal(t, 3, th.AggressiveBull.MinAboveMA50)
	assert.Equal(t, 4, th.AggressiveBull.MinExtendedAboveMA200, "other counts keep defaults")
	assert.Equal(t, 3, th.Bear.MinBelowMA200)

	_, err = ParseThresholds([]byte("bull:\n  min_large_caps_above_ma50: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestParseThresholds_NonFinite(t *testing.T) {
	_, err := ParseThresholds([]byte("ma200_distance_pct: .nan\n"))
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	_, err = ParseThresholds([]byte("biotech_breakout_pct: .inf\n"))
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestParseThresholds_Empty(t *testing.T) {
	th, err := ParseThresholds(nil)
	require.NoError(t, err)
	assert.Equal(t, regime.DefaultThresholds(), th)
}
