package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Len(t, cfg.Instruments, 18)
	assert.Equal(t, "twii", cfg.Instruments[0].Key)
	assert.Equal(t, "gld", cfg.Instruments[17].Key)
	assert.Equal(t, "data.json", cfg.OutputPath)
	assert.Equal(t, "0 30 14 * * 1-5", cfg.Schedule.RefreshCron)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 365, cfg.Indicators.HistoryDays)
	assert.Equal(t, 9, cfg.Indicators.KDJPeriod)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, [3]int{20, 120, 240}, [3]int{cfg.Indicators.MAShort, cfg.Indicators.MAMid, cfg.Indicators.MALong})
	assert.Equal(t, 3, cfg.Signals.ExtremaWindow)
	assert.Equal(t, 20, cfg.Signals.MinDivergenceBars)
	assert.Equal(t, 5, cfg.Signals.MaxExtremumAge)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
telegram:
  bot_token: file-token
  chat_id: "42"
schedule:
  refresh_cron: "0 0 9 * * *"
instruments:
  - key: btc
    symbol: BTC-USD
    source: binance
  - key: spy
    symbol: SPY
workers: 2
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("OUTPUT_PATH", "/tmp/board.json")
	t.Setenv("WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, "0 0 9 * * *", cfg.Schedule.RefreshCron)
	assert.Equal(t, "/tmp/board.json", cfg.OutputPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []model.Instrument{
		{Key: "btc", Symbol: "BTC-USD", Source: "binance"},
		{Key: "spy", Symbol: "SPY"},
	}, cfg.Instruments)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadInput(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "instruments: [oops"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("WORKERS", "many")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duplicate keys", func(c *Config) { c.Instruments[1].Key = c.Instruments[0].Key }},
		{"unknown source", func(c *Config) { c.Instruments[0].Source = "bloomberg" }},
		{"missing symbol", func(c *Config) { c.Instruments[0].Symbol = "" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"rsi period one", func(c *Config) { c.Indicators.RSIPeriod = 1 }},
		{"zero extremum age", func(c *Config) { c.Signals.MaxExtremumAge = 0 }},
		{"negative extremum age", func(c *Config) { c.Signals.MaxExtremumAge = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad metrics address", func(c *Config) { c.MetricsListen = "not an address" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }},
		{"rest without base url", func(c *Config) { c.Instruments[0].Source = "rest" }},
		{"polygon without key", func(c *Config) { c.Instruments[0].Source = "polygon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	t.Setenv("POLYGON_API_KEY", "")
	require.NoError(t, os.Unsetenv("POLYGON_API_KEY"))
	path := writeFile(t, ".env", "POLYGON_API_KEY=from-dotenv\n")
	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.DataSource.PolygonAPIKey)
}

func TestLoad_ZeroMeansDefault(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "signals:\n  max_extremum_age: 0\n  extrema_window: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Signals.MaxExtremumAge)
	assert.Equal(t, 4, cfg.Signals.ExtremaWindow)
	assert.NoError(t, cfg.Validate())
}
