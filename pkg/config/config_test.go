package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goalpaca/pkg/alpaca"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ALPACA_ENVIRONMENT", "ALPACA_TRADING_URL", "ALPACA_DATA_URL", "ALPACA_TIMEOUT",
		"ALPACA_USER_AGENT", "ALPACA_LOG_LEVEL", "ALPACA_LOG_FILE", "ALPACA_LOG_MAX_SIZE",
		"ALPACA_LOG_MAX_BACKUPS", "ALPACA_LOG_MAX_AGE", "ALPACA_LOG_COMPRESS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, "paper", cfg.Environment)
	assert.Equal(t, alpaca.EnvironmentPaper, cfg.AlpacaEnvironment())
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogFile)
	assert.True(t, cfg.LogCompress)

	// 只有超时选项
	assert.Len(t, cfg.ClientOptions(), 1)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "alpaca.yaml", `
environment: live
trading_url: http://127.0.0.1:9000
timeout: 5s
log:
  level: debug
  file: logs/alpaca.log
  max_size: 10
  compress: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, alpaca.EnvironmentLive, cfg.AlpacaEnvironment())
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "logs/alpaca.log", lc.OutputFile)
	assert.Equal(t, 10, lc.MaxSize)
	assert.Equal(t, DefaultLogBackups, lc.MaxBackups)
	assert.False(t, lc.Compress)

	client := alpaca.NewClient(alpaca.NewCredentials("k", "s", cfg.AlpacaEnvironment()), cfg.ClientOptions()...)
	assert.Equal(t, "http://127.0.0.1:9000", client.TradingURL())
	assert.Equal(t, alpaca.MarketDataURL, client.DataURL())
}

func TestLoadJSONWithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "alpaca.json", `{"environment":"live","timeout":"20","log":{"level":"warn"}}`)
	t.Setenv("ALPACA_ENVIRONMENT", "paper")
	t.Setenv("ALPACA_LOG_LEVEL", "error")
	t.Setenv("ALPACA_DATA_URL", "https://data.example.com")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "paper", cfg.Environment)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "https://data.example.com", cfg.DataURL)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(writeFile(t, "alpaca.toml", "environment = 'paper'"))
	assert.ErrorContains(t, err, "不支持的配置文件格式")

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "bad.yaml", "environment: sandbox\n"))
	assert.ErrorContains(t, err, "ALPACA_ENVIRONMENT")

	_, err = LoadFromFile(writeFile(t, "url.yaml", "trading_url: ftp://example.com\n"))
	assert.ErrorContains(t, err, "ALPACA_TRADING_URL")

	t.Setenv("ALPACA_TIMEOUT", "soon")
	_, err = LoadFromFile("")
	assert.ErrorContains(t, err, "超时配置无效")
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "")
	t.Setenv("APCA_API_SECRET_KEY", "preset")
	path := writeFile(t, ".env", "APCA_API_KEY_ID=from-file\nAPCA_API_SECRET_KEY=from-file\n")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path))

	// t.Setenv 设置的空值仍视为已设置，godotenv 不会覆盖
	assert.Equal(t, "", os.Getenv("APCA_API_KEY_ID"))
	assert.Equal(t, "preset", os.Getenv("APCA_API_SECRET_KEY"))
}

func TestLoadDotEnvFillsUnsetVariables(t *testing.T) {
	const key = "ALPACA_DOTENV_FILL"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
	path := writeFile(t, ".env", key+"=loaded\n")

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	assert.Equal(t, "loaded", os.Getenv(key))
}

func TestLoadUsesConfigPath(t *testing.T) {
	clearEnv(t)
	prev := GetConfigPath()
	t.Cleanup(func() { SetConfigPath(prev) })

	path := writeFile(t, "alpaca.yml", "environment: live\nuser_agent: rebalancer/2.1\n")
	SetConfigPath(path)
	assert.Equal(t, path, GetConfigPath())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, alpaca.EnvironmentLive, cfg.AlpacaEnvironment())
	assert.Equal(t, "rebalancer/2.1", cfg.UserAgent)
}

func TestZeroTimeoutKeepsClientDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALPACA_TIMEOUT", "0")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Zero(t, cfg.Timeout)
	assert.Empty(t, cfg.ClientOptions())
}
