package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/lox/tableclient/internal/transport"
)

// Environment variables that override the config file
const (
	EnvServer            = "TABLECLIENT_SERVER"
	EnvName              = "TABLECLIENT_NAME"
	EnvLogLevel          = "TABLECLIENT_LOG_LEVEL"
	EnvReconnectAttempts = "TABLECLIENT_RECONNECT_ATTEMPTS"
)

// ClientConfig represents the complete client configuration
type ClientConfig struct {
	Server ServerConnection `hcl:"server,block"`
	Player *PlayerSettings  `hcl:"player,block"`
	UI     *UISettings      `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL               string `hcl:"url"`
	ConnectTimeout    int    `hcl:"connect_timeout,optional"`
	ReconnectAttempts *int   `hcl:"reconnect_attempts,optional"` // nil means default; 0 disables reconnecting
	ReconnectDelay    int    `hcl:"reconnect_delay,optional"`
}

// PlayerSettings contains player-specific settings
type PlayerSettings struct {
	Name string `hcl:"name,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Server: ServerConnection{
			URL:               "http://localhost:5000",
			ConnectTimeout:    10,
			ReconnectAttempts: intPtr(5),
			ReconnectDelay:    1,
		},
		Player: &PlayerSettings{},
		UI: &UISettings{
			LogLevel: "warn",
			LogFile:  "tableclient.log",
		},
	}
}

// LoadClientConfig loads client configuration from HCL file. A missing file
// yields the defaults.
func LoadClientConfig(filename string) (*ClientConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return DefaultClientConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ClientConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ClientConfig) applyDefaults() {
	defaults := DefaultClientConfig()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if c.Server.ReconnectAttempts == nil {
		c.Server.ReconnectAttempts = defaults.Server.ReconnectAttempts
	}
	if c.Server.ReconnectDelay == 0 {
		c.Server.ReconnectDelay = defaults.Server.ReconnectDelay
	}

	if c.Player == nil {
		c.Player = defaults.Player
	}
	if c.UI == nil {
		c.UI = defaults.UI
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = defaults.UI.LogLevel
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = defaults.UI.LogFile
	}
}

// LoadEnv reads KEY=VALUE files into the process environment without
// overwriting variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values from TABLECLIENT_* environment variables
func (c *ClientConfig) ApplyEnv() error {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvName); v != "" {
		c.Player.Name = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.UI.LogLevel = v
	}
	if v := os.Getenv(EnvReconnectAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReconnectAttempts, err)
		}
		c.Server.ReconnectAttempts = &n
	}
	return nil
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}

	if _, err := transport.NormalizeURL(c.Server.URL); err != nil {
		return err
	}

	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}

	if c.Server.ReconnectAttempts != nil && *c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}

	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}

// TransportConfig returns the connection and reconnection policy
func (c *ClientConfig) TransportConfig() transport.Config {
	attempts := *DefaultClientConfig().Server.ReconnectAttempts
	if c.Server.ReconnectAttempts != nil {
		attempts = *c.Server.ReconnectAttempts
	}
	return transport.Config{
		URL:               c.Server.URL,
		HandshakeTimeout:  time.Duration(c.Server.ConnectTimeout) * time.Second,
		ReconnectAttempts: attempts,
		ReconnectDelay:    time.Duration(c.Server.ReconnectDelay) * time.Second,
	}
}

func intPtr(n int) *int {
	return &n
}
