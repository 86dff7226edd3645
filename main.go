package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/energy-exec/server/internal/cli"
	logx "github.com/energy-exec/server/pkg/logger"
)

var version = "1.0.0"

var CLI struct {
	Version kong.VersionFlag
	EnvFile string `help:"Env file loaded before reading the environment." default:".env" type:"path"`

	Run     cli.RunCmd     `cmd:"" help:"Run the Telegram bot and HTTP server." default:"1"`
	Migrate cli.MigrateCmd `cmd:"" help:"Apply database migrations."`
	Logs    struct {
		Show   cli.LogsShowCmd   `cmd:"" help:"Show one day's log as JSON."`
		Recent cli.LogsRecentCmd `cmd:"" help:"List the most recent daily logs."`
	} `cmd:"" help:"Inspect daily logs."`
	Messages struct {
		Recent cli.MessagesRecentCmd `cmd:"" help:"List the most recent chat messages."`
		Date   cli.MessagesDateCmd   `cmd:"" help:"List chat messages for a UTC date."`
	} `cmd:"" help:"Inspect the chat message log."`
	Config struct {
		Get    cli.ConfigGetCmd    `cmd:"" help:"Print a config value."`
		Set    cli.ConfigSetCmd    `cmd:"" help:"Set a config value."`
		Delete cli.ConfigDeleteCmd `cmd:"" help:"Delete a config value."`
		List   cli.ConfigListCmd   `cmd:"" help:"List all config values."`
	} `cmd:"" help:"Read and write user settings."`
}

func main() {
	logx.Init()

	ctx := kong.Parse(&CLI,
		kong.Name("energy-exec"),
		kong.Description("Energy-aware daily planning assistant for Telegram"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&cli.Context{
		Version: version,
		Out:     os.Stdout,
		EnvFile: CLI.EnvFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
