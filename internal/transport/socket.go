// Package transport constructs the resolver's UDP listener, applying
// platform-specific socket options before bind.
package transport

import (
	"context"
	"fmt"
	"net"
)

// Listen binds a UDP socket at address (host:port), configuring
// SO_REUSEPORT where the platform supports it so a restarted resolver can
// rebind promptly without waiting out a lingering socket from the previous
// process.
func Listen(ctx context.Context, address string) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: platformControl}

	pc, err := lc.ListenPacket(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp %s: %w", address, err)
	}

	udpConn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("transport: unexpected packet conn type %T", pc)
	}
	return udpConn, nil
}
