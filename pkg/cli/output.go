package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/skratchdot/open-golang/open"
)

var Stdout io.Writer = os.Stdout

func Warnf(format string, a ...any) {
	slog.Warn(fmt.Sprintf(format, a...))
}

func Fatal(v ...any) {
	slog.Error(fmt.Sprint(v...))
	os.Exit(1)
}

func Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(Stdout)
	table.SetHeader(header)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(rows)
	table.Render()
}

func OpenURL(url string) error {
	return open.Run(url)
}
