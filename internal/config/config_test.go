package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sburl/ebay-oauth-go/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ebayctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.ebay.com/identity/v1/oauth2/token", cfg.Ebay.TokenURL)
	assert.Equal(t, "https://api.ebay.com/buy/browse/v1", cfg.Ebay.BrowseURL)
	assert.Equal(t, "EBAY_US", cfg.Ebay.Marketplace)
	assert.Equal(t, 3, cfg.Ebay.MaxRetries)
	assert.InDelta(t, 5.0, cfg.Ebay.RateLimit.PerSecond, 1e-9)
	assert.Equal(t, 10, cfg.Ebay.RateLimit.Burst)
	assert.Equal(t, int64(5000), cfg.Ebay.RateLimit.DailyLimit)
	assert.Equal(t, "env", cfg.Credentials.Backend)
	assert.Equal(t, ".env", cfg.Credentials.Path)
	assert.Equal(t, []string{""}, cfg.Accounts)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_ParsesYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
ebay:
  marketplace: EBAY_GB
  max_retries: 5
  rate_limit:
    enabled: true
    per_second: 2.5
    burst: 4
    daily_limit: 100
credentials:
  backend: sqlite
accounts:
  - ""
  - WORK
server:
  host: 127.0.0.1
  port: 9090
schedule:
  refresh_interval: 15m
logging:
  level: debug
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "EBAY_GB", cfg.Ebay.Marketplace)
	assert.Equal(t, 5, cfg.Ebay.MaxRetries)
	assert.True(t, cfg.Ebay.RateLimit.Enabled)
	assert.InDelta(t, 2.5, cfg.Ebay.RateLimit.PerSecond, 1e-9)
	assert.Equal(t, "sqlite", cfg.Credentials.Backend)
	assert.Equal(t, "credentials.db", cfg.Credentials.Path, "sqlite backend gets sqlite default path")
	assert.Equal(t, []string{"", "WORK"}, cfg.Accounts)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.RefreshInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("EBAYCTL_TEST_CRED_PATH", "/var/lib/ebayctl/.env")

	path := writeConfig(t, `
credentials:
  path: ${EBAYCTL_TEST_CRED_PATH}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ebayctl/.env", cfg.Credentials.Path)
}

func TestLoad_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown backend",
			content: `
credentials:
  backend: redis
`,
			wantErr: "credentials.backend",
		},
		{
			name: "negative retries",
			content: `
ebay:
  max_retries: -1
`,
			wantErr: "max_retries",
		},
		{
			name: "refresh interval too short",
			content: `
schedule:
  refresh_interval: 10s
`,
			wantErr: "refresh_interval",
		},
		{
			name:    "malformed yaml",
			content: "ebay: [not a map",
			wantErr: "parsing config YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
