package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadClientConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "nope.hcl"))
		require.NoError(t, err)
		assert.Equal(t, DefaultClientConfig(), cfg)
	})

	t.Run("file values with defaults for the rest", func(t *testing.T) {
		path := writeFile(t, "tableclient.hcl", `
server {
  url                = "https://poker.example.com"
  reconnect_attempts = 3
}

player {
  name = "Alice"
}
`)
		cfg, err := LoadClientConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "https://poker.example.com", cfg.Server.URL)
		require.NotNil(t, cfg.Server.ReconnectAttempts)
		assert.Equal(t, 3, *cfg.Server.ReconnectAttempts)
		assert.Equal(t, 10, cfg.Server.ConnectTimeout)
		assert.Equal(t, 1, cfg.Server.ReconnectDelay)
		assert.Equal(t, "Alice", cfg.Player.Name)
		require.NotNil(t, cfg.UI)
		assert.Equal(t, "warn", cfg.UI.LogLevel)
		assert.Equal(t, "tableclient.log", cfg.UI.LogFile)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("zero reconnect attempts disables reconnecting", func(t *testing.T) {
		path := writeFile(t, "noretry.hcl", `
server {
  url                = "http://localhost:5000"
  reconnect_attempts = 0
}
`)
		cfg, err := LoadClientConfig(path)
		require.NoError(t, err)

		require.NotNil(t, cfg.Server.ReconnectAttempts)
		assert.Equal(t, 0, *cfg.Server.ReconnectAttempts)
		assert.Equal(t, 0, cfg.TransportConfig().ReconnectAttempts)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("omitted reconnect attempts use the default", func(t *testing.T) {
		path := writeFile(t, "minimal.hcl", `
server {
  url = "http://localhost:5000"
}
`)
		cfg, err := LoadClientConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.TransportConfig().ReconnectAttempts)
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeFile(t, "bad.hcl", `server { url = `)
		_, err := LoadClientConfig(path)
		assert.ErrorContains(t, err, "failed to parse HCL file")
	})

	t.Run("unknown attribute", func(t *testing.T) {
		path := writeFile(t, "unknown.hcl", `
server {
  url  = "http://localhost:5000"
  port = 5000
}
`)
		_, err := LoadClientConfig(path)
		assert.ErrorContains(t, err, "failed to decode HCL")
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("overrides file values", func(t *testing.T) {
		t.Setenv(EnvServer, "http://table.local:9000")
		t.Setenv(EnvName, "Bob")
		t.Setenv(EnvLogLevel, "debug")
		t.Setenv(EnvReconnectAttempts, "0")

		cfg := DefaultClientConfig()
		require.NoError(t, cfg.ApplyEnv())

		assert.Equal(t, "http://table.local:9000", cfg.Server.URL)
		assert.Equal(t, "Bob", cfg.Player.Name)
		assert.Equal(t, "debug", cfg.UI.LogLevel)
		require.NotNil(t, cfg.Server.ReconnectAttempts)
		assert.Equal(t, 0, *cfg.Server.ReconnectAttempts)
	})

	t.Run("unset variables leave config alone", func(t *testing.T) {
		t.Setenv(EnvServer, "")
		cfg := DefaultClientConfig()
		require.NoError(t, cfg.ApplyEnv())
		assert.Equal(t, DefaultClientConfig(), cfg)
	})

	t.Run("bad reconnect attempts", func(t *testing.T) {
		t.Setenv(EnvReconnectAttempts, "many")
		cfg := DefaultClientConfig()
		assert.ErrorContains(t, cfg.ApplyEnv(), EnvReconnectAttempts)
	})
}

func TestLoadEnv(t *testing.T) {
	const key = "TABLECLIENT_TEST_DOTENV"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-file\n")

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv(key))

	// Existing variables win over the file
	require.NoError(t, os.Setenv(key, "from-process"))
	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-process", os.Getenv(key))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ClientConfig)
		errMsg string
	}{
		{"empty url", func(c *ClientConfig) { c.Server.URL = "" }, "server URL is required"},
		{"bad scheme", func(c *ClientConfig) { c.Server.URL = "ftp://localhost" }, "scheme"},
		{"zero timeout", func(c *ClientConfig) { c.Server.ConnectTimeout = 0 }, "connect timeout"},
		{"negative attempts", func(c *ClientConfig) { c.Server.ReconnectAttempts = intPtr(-1) }, "reconnect attempts"},
		{"zero delay", func(c *ClientConfig) { c.Server.ReconnectDelay = 0 }, "reconnect delay"},
		{"log level", func(c *ClientConfig) { c.UI.LogLevel = "chatty" }, "invalid log level"},
	}

	assert.NoError(t, DefaultClientConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestTransportConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Server.ReconnectDelay = 2

	tc := cfg.TransportConfig()
	assert.Equal(t, "http://localhost:5000", tc.URL)
	assert.Equal(t, 10*time.Second, tc.HandshakeTimeout)
	assert.Equal(t, 5, tc.ReconnectAttempts)
	assert.Equal(t, 2*time.Second, tc.ReconnectDelay)
}
