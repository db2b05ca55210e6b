package app

import (
	"log/slog"

	"github.com/adrianliechti/devserve/pkg/cli"
	"github.com/adrianliechti/devserve/pkg/mime"
)

var IndexFlag = &cli.StringSliceFlag{
	Name:  "index",
	Usage: "index file names tried for directories, in order",
}

var NoListingFlag = &cli.BoolFlag{
	Name:  "no-listing",
	Usage: "answer directories without index with 403",
}

var SPAFlag = &cli.BoolFlag{
	Name:  "spa",
	Usage: "serve index.html for unknown routes",
}

var MimeFlag = &cli.StringSliceFlag{
	Name:  "mime",
	Usage: "content type override as .ext=type (repeatable)",
}

var SniffFlag = &cli.BoolFlag{
	Name:  "sniff",
	Usage: "detect the content type of unknown extensions",
}

var CacheFlag = &cli.BoolFlag{
	Name:  "cache",
	Usage: "allow clients to cache responses",
}

var LiveFlag = &cli.BoolFlag{
	Name:  "live",
	Usage: "reload pages when files change",
}

var OpenFlag = &cli.BoolFlag{
	Name:  "open",
	Usage: "open the browser after startup",
}

var LogLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Usage: "debug, info, warn or error",
	Value: "info",
}

func MimeOverrides(c *cli.Context) (map[string]string, error) {
	return mime.ParseOverrides(c.StringSlice(MimeFlag.Name))
}

func LogLevel(c *cli.Context) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.String(LogLevelFlag.Name))); err != nil {
		return slog.LevelInfo, err
	}

	return level, nil
}
