package system

import (
	"net"
	"strconv"
)

// FreePort returns preference if it can be bound on host, otherwise a random
// free port.
func FreePort(host string, preference int) (int, error) {
	if port, err := freePort(host, preference); err == nil {
		return port, err
	}

	return freePort(host, 0)
}

func freePort(host string, port int) (int, error) {
	if host == "" {
		host = "localhost"
	}

	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(port)))

	if err != nil {
		return 0, err
	}

	ln, err := net.ListenTCP("tcp", addr)

	if err != nil {
		return 0, err
	}

	defer ln.Close()

	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Port returns the TCP port a listener is bound to, or 0.
func Port(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}

	return 0
}
