package system

import (
	"context"
	"fmt"
	"net"
)

// BindError reports a listener that could not be opened, typically because
// the port is in use or requires elevated privileges.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("unable to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Listen opens a TCP listener with address reuse enabled, so a restart right
// after a previous instance exited does not fail with "address in use".
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	config := net.ListenConfig{
		Control: reuseAddr,
	}

	ln, err := config.Listen(ctx, "tcp", addr)

	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	return ln, nil
}
