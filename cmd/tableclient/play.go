package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lox/tableclient/internal/client"
)

type PlayCmd struct {
	Name string `short:"n" help:"Player name to join with (overrides config); prompts in the UI when empty"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		cfg.Player.Name = name
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs go to a file so they don't corrupt the TUI
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger, err := client.NewLogger(logFile, cfg.UI.LogLevel)
	if err != nil {
		return err
	}

	ctx := setupSignalHandler(logger)
	return client.RunInteractive(ctx, cfg, logger)
}
