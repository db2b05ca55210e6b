//go:build windows

package system

import (
	"syscall"
)

// SO_REUSEADDR on windows allows port hijacking, and a closed listener
// frees its port immediately anyway.
func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
