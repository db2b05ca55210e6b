package app

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/adrianliechti/devserve/app/config"
	"github.com/adrianliechti/devserve/pkg/cli"
)

var ErrTooManyArguments = errors.New("too many arguments, expected [port] [root]")

// Config reads the config file and applies the flags that were set on top.
func Config(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String(ConfigFlag.Name))

	if err != nil {
		return nil, err
	}

	if c.IsSet(BindFlag.Name) {
		cfg.Bind = c.String(BindFlag.Name)
	}

	if c.IsSet(PortFlag.Name) {
		cfg.Port = c.Int(PortFlag.Name)
	}

	if c.IsSet(RootFlag.Name) {
		cfg.Root = c.Path(RootFlag.Name)
	}

	if c.IsSet(IndexFlag.Name) {
		cfg.Index = c.StringSlice(IndexFlag.Name)
	}

	if c.IsSet(NoListingFlag.Name) {
		cfg.Listing = !c.Bool(NoListingFlag.Name)
	}

	if c.Bool(SPAFlag.Name) {
		cfg.Fallback = config.DefaultFallback
	}

	if c.IsSet(MimeFlag.Name) {
		overrides, err := MimeOverrides(c)

		if err != nil {
			return nil, err
		}

		if cfg.Mime == nil {
			cfg.Mime = make(map[string]string, len(overrides))
		}

		for ext, typ := range overrides {
			cfg.Mime[ext] = typ
		}
	}

	for flag, value := range map[*cli.BoolFlag]*bool{
		SniffFlag:   &cfg.Sniff,
		CacheFlag:   &cfg.Cache,
		LiveFlag:    &cfg.Live,
		OpenFlag:    &cfg.Open,
		SFTPFlag:    &cfg.SFTP,
		MetricsFlag: &cfg.Metrics,
	} {
		if c.IsSet(flag.Name) {
			*value = c.Bool(flag.Name)
		}
	}

	if c.IsSet(SFTPPortFlag.Name) {
		cfg.SFTP = true
		cfg.SFTPPort = c.Int(SFTPPortFlag.Name)
	}

	if c.IsSet(MetricsPortFlag.Name) {
		cfg.Metrics = true
		cfg.MetricsPort = c.Int(MetricsPortFlag.Name)
	}

	return cfg, nil
}

// ApplyArgs applies the positional [port] [root] arguments. A single
// non-numeric argument is taken as the root.
func ApplyArgs(cfg *config.Config, args []string) error {
	if len(args) > 2 {
		return ErrTooManyArguments
	}

	if len(args) == 0 {
		return nil
	}

	port, err := strconv.Atoi(args[0])

	if err != nil {
		if len(args) == 2 {
			return fmt.Errorf("invalid port %q", args[0])
		}

		cfg.Root = args[0]
		return nil
	}

	cfg.Port = port

	if len(args) == 2 {
		cfg.Root = args[1]
	}

	return nil
}
