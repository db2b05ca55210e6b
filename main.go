package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrianliechti/devserve/app"
	"github.com/adrianliechti/devserve/app/mime"
	"github.com/adrianliechti/devserve/app/serve"
	"github.com/adrianliechti/devserve/pkg/cli"

	"github.com/lmittmann/tint"
)

var version string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))

	app := initApp(level)

	if err := app.RunContext(ctx, os.Args); err != nil {
		cli.Fatal(err)
	}
}

func initApp(level *slog.LevelVar) *cli.App {
	return &cli.App{
		Name:  "devserve",
		Usage: "static file server for local WebAssembly development",

		Suggest: true,
		Version: version,

		HideHelpCommand: true,

		ArgsUsage: "[port] [root]",

		Flags: append([]cli.Flag{app.LogLevelFlag}, serve.Flags...),

		Before: func(c *cli.Context) error {
			l, err := app.LogLevel(c)

			if err != nil {
				return err
			}

			level.Set(l)
			return nil
		},

		Action: serve.Action,

		Commands: []*cli.Command{
			serve.Command,
			mime.Command,
		},
	}
}
