package main

import (
	"fmt"
	"strings"

	"github.com/lox/tableclient/internal/client"
)

// Globals are flags shared by every command
type Globals struct {
	Config   string   `short:"c" default:"tableclient.hcl" type:"path" help:"Path to HCL configuration file"`
	EnvFile  []string `name:"env-file" default:".env" help:"Env files loaded before the configuration"`
	Server   string   `short:"s" help:"Server URL (overrides config and environment)"`
	LogLevel string   `short:"l" name:"log-level" help:"Log level (overrides config)"`
	LogFile  string   `name:"log-file" help:"Log file path (overrides config)"`
}

// loadConfig layers the config file, the environment and the flags, in
// increasing precedence
func (g *Globals) loadConfig() (*client.ClientConfig, error) {
	if err := client.LoadEnv(g.EnvFile...); err != nil {
		return nil, err
	}

	cfg, err := client.LoadClientConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if g.Server != "" {
		cfg.Server.URL = strings.TrimSpace(g.Server)
	}
	if g.LogLevel != "" {
		cfg.UI.LogLevel = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.UI.LogFile = g.LogFile
	}

	return cfg, nil
}
