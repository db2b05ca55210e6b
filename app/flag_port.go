package app

import (
	"net"
	"strconv"

	"github.com/adrianliechti/devserve/app/config"
	"github.com/adrianliechti/devserve/pkg/cli"
	"github.com/adrianliechti/devserve/pkg/system"
)

var BindFlag = &cli.StringFlag{
	Name:  "bind",
	Usage: "bind address (empty for all interfaces)",
	Value: config.DefaultBind,
}

var PortFlag = &cli.IntFlag{
	Name:    "port",
	Aliases: []string{"p"},
	Usage:   "HTTP port (0 for random)",
	Value:   config.DefaultPort,
}

var SFTPFlag = &cli.BoolFlag{
	Name:  "sftp",
	Usage: "export the root read-only over SFTP",
}

var SFTPPortFlag = &cli.IntFlag{
	Name:  "sftp-port",
	Usage: "preferred SFTP port, implies --sftp",
	Value: config.DefaultSFTPPort,
}

var MetricsFlag = &cli.BoolFlag{
	Name:  "metrics",
	Usage: "serve Prometheus metrics",
}

var MetricsPortFlag = &cli.IntFlag{
	Name:  "metrics-port",
	Usage: "preferred metrics port, implies --metrics",
	Value: config.DefaultMetricsPort,
}

// PortOrRandom returns preference when it is free on host, or any free port.
func PortOrRandom(host string, preference int) (int, error) {
	return system.FreePort(host, preference)
}

func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// DisplayHost is the host name to print in URLs for a bind address.
func DisplayHost(bind string) string {
	switch bind {
	case "", "0.0.0.0", "::", "[::]":
		return "localhost"
	}

	return bind
}
