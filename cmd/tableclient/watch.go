package main

import (
	"fmt"
	"os"

	"github.com/lox/tableclient/internal/client"
)

type WatchCmd struct{}

func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := client.NewLogger(os.Stderr, cfg.UI.LogLevel)
	if err != nil {
		return err
	}

	ctx := setupSignalHandler(logger)
	return client.RunWatch(ctx, cfg, logger, os.Stdout)
}
