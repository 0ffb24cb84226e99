package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  kind: http
  base_url: http://example.com/api/history
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "1d", cfg.Provider.Timeframe)
	assert.Equal(t, 90, cfg.Provider.PageDays)
	assert.Equal(t, 10, cfg.Storage.BatchSize)
	assert.Equal(t, 1000, cfg.Storage.QueueSize)
	assert.Equal(t, 3, cfg.Download.Concurrency)
	assert.Equal(t, 300, cfg.Download.WriterWaitSeconds)
	assert.Equal(t, ":9992", cfg.API.Addr)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  log_level: debug
provider:
  kind: binance
  timeframe: 4h
  names:
    BTC/USDT: Bitcoin
storage:
  batch_size: 50
  queue_size: 2048
  fast_path: true
download:
  symbols: [BTC/USDT, ETH/USDT]
  years: 3
  concurrency: 5
notify:
  telegram:
    enabled: true
    bot_token: token-123
    chat_id: chat-456
api:
  enabled: true
  addr: ":8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Provider.Kind)
	assert.Equal(t, "4h", cfg.Provider.Timeframe)
	// viper 会把嵌套 map 键转成小写
	assert.Equal(t, "Bitcoin", cfg.Provider.Names["btc/usdt"])
	assert.Equal(t, 50, cfg.Storage.BatchSize)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Download.Symbols)
	assert.Equal(t, 3, cfg.Download.Years)
	assert.True(t, cfg.Notify.Telegram.Enabled)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("http kind requires base_url", func(t *testing.T) {
		path := writeConfig(t, "provider:\n  kind: http\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("unknown provider kind", func(t *testing.T) {
		path := writeConfig(t, "provider:\n  kind: carrier-pigeon\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("telegram enabled without credentials", func(t *testing.T) {
		path := writeConfig(t, `
provider:
  kind: binance
notify:
  telegram:
    enabled: true
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}
