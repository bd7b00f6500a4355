//go:build windows

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// setSocketOptions enables SO_REUSEADDR, the closest Windows equivalent to
// POSIX SO_REUSEPORT for allowing a restarted resolver to rebind promptly.
// Windows has no SO_REUSEPORT.
func setSocketOptions(fd uintptr) error {
	if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("transport: set SO_REUSEADDR: %w", err)
	}
	return nil
}

func platformControl(_, _ string, c syscall.RawConn) error {
	var sockoptErr error
	err := c.Control(func(fd uintptr) {
		sockoptErr = setSocketOptions(fd)
	})
	if err != nil {
		return fmt.Errorf("transport: raw conn control failed: %w", err)
	}
	return sockoptErr
}
