package serve

import (
	"log/slog"

	"github.com/adrianliechti/devserve/app"
	"github.com/adrianliechti/devserve/pkg/cli"
)

var Flags = []cli.Flag{
	app.ConfigFlag,

	app.BindFlag,
	app.PortFlag,
	app.RootFlag,

	app.IndexFlag,
	app.NoListingFlag,
	app.SPAFlag,
	app.MimeFlag,
	app.SniffFlag,
	app.CacheFlag,

	app.LiveFlag,
	app.OpenFlag,

	app.SFTPFlag,
	app.SFTPPortFlag,

	app.MetricsFlag,
	app.MetricsPortFlag,
}

var Command = &cli.Command{
	Name:  "serve",
	Usage: "serve a directory over HTTP",

	ArgsUsage: "[port] [root]",

	Flags: Flags,

	Action: Action,
}

func Action(c *cli.Context) error {
	cfg, err := app.Config(c)

	if err != nil {
		return err
	}

	if err := app.ApplyArgs(cfg, c.Args().Slice()); err != nil {
		return err
	}

	s, err := Start(c.Context, cfg, slog.Default())

	if err != nil {
		return err
	}

	rows := [][]string{
		{"Root", s.Root()},
	}

	for _, e := range s.Endpoints() {
		rows = append(rows, []string{e.Name, e.URL})
	}

	cli.Table([]string{"Service", "Address"}, rows)

	if cfg.Open {
		if err := cli.OpenURL(s.URL()); err != nil {
			cli.Warnf("unable to open browser: %v", err)
		}
	}

	return s.Run(c.Context)
}
