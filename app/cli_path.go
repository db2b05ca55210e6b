package app

import (
	"github.com/adrianliechti/devserve/pkg/cli"
)

var RootFlag = &cli.PathFlag{
	Name:    "root",
	Aliases: []string{"d"},
	Usage:   "directory to serve (default: current directory)",
}

var ConfigFlag = &cli.PathFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "YAML config file",
}
