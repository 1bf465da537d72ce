package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `{
		"url": "ws://hub.local:8123/api/websocket",
		"token": "secret",
		"verbose": true,
		"probe_interval": "30s",
		"reconnect_delay": "250ms",
		"metrics_addr": ":9090"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://hub.local:8123/api/websocket", cfg.URL)
	assert.Equal(t, "secret", cfg.Token)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 30*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.Equal(t, ":9090", cfg.MetricsAddr)

	// Untouched fields keep their defaults
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"url": "ws://hub.local:8123/api/websocket",
		"token": "from-file",
		"probe_interval": "30s"
	}`)

	t.Setenv("HASS_TOKEN", "from-env")
	t.Setenv("HASS_PROBE_INTERVAL", "5s")
	t.Setenv("HASS_VERBOSE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Token, "environment wins over the file")
	assert.Equal(t, 5*time.Second, cfg.ProbeInterval)
	assert.True(t, cfg.Verbose)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("HASS_URL", "wss://hub.example.org/api/websocket")
	t.Setenv("HASS_TOKEN", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "wss://hub.example.org/api/websocket", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.ProbeInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfigFile(t, `{
		"url": "ws://hub.local:8123/api/websocket",
		"token": "secret",
		"probe_interval": "half an hour"
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe_interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(_ *Config) {}, ""},
		{"missing url", func(c *Config) { c.URL = "" }, "url is required"},
		{"bad scheme", func(c *Config) { c.URL = "http://hub.local" }, "ws or wss"},
		{"missing token", func(c *Config) { c.Token = "" }, "token is required"},
		{"zero probe interval", func(c *Config) { c.ProbeInterval = 0 }, "probe_interval"},
		{"negative delay", func(c *Config) { c.ReconnectDelay = -time.Second }, "reconnect_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.URL = "ws://hub.local:8123/api/websocket"
			cfg.Token = "secret"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
