package mime

import (
	"github.com/adrianliechti/devserve/app"
	"github.com/adrianliechti/devserve/pkg/cli"
	"github.com/adrianliechti/devserve/pkg/mime"
)

var Command = &cli.Command{
	Name:  "mime",
	Usage: "show the content type table or look up file names",

	ArgsUsage: "[name...]",

	Flags: []cli.Flag{
		app.ConfigFlag,
		app.MimeFlag,
	},

	Action: func(c *cli.Context) error {
		cfg, err := app.Config(c)

		if err != nil {
			return err
		}

		table, err := mime.New(cfg.Mime)

		if err != nil {
			return err
		}

		if c.NArg() == 0 {
			printOverrides(table)
			return nil
		}

		printLookup(table, c.Args().Slice())
		return nil
	},
}

func printOverrides(table *mime.Table) {
	var rows [][]string

	for _, e := range table.Overrides() {
		rows = append(rows, []string{e.Extension, e.Type})
	}

	cli.Table([]string{"Extension", "Type"}, rows)
}

func printLookup(table *mime.Table, names []string) {
	var rows [][]string

	for _, name := range names {
		rows = append(rows, []string{name, table.TypeOf(name)})
	}

	cli.Table([]string{"Name", "Type"}, rows)
}
