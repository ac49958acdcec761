package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Play    PlayCmd          `cmd:"" default:"1" help:"Join a table with the interactive terminal UI"`
	Watch   WatchCmd         `cmd:"" help:"Follow a table without joining and print each change"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tableclient"),
		kong.Description("Terminal client for multiplayer card tables"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
