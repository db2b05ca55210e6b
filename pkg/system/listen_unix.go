//go:build !windows

package system

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func reuseAddr(network, address string, c syscall.RawConn) error {
	var opterr error

	err := c.Control(func(fd uintptr) {
		opterr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})

	if err != nil {
		return err
	}

	return opterr
}
