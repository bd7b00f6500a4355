// Package rootservers holds the fixed bootstrap set for every fresh
// resolution: the 13 well-known IPv4 addresses of the DNS root letters.
package rootservers

import (
	"crypto/rand"
	"math/big"
	"net"
)

// addrs are the root-server letter A through M addresses, taken verbatim
// from the well-known root hints.
var addrs = []net.IP{
	net.IPv4(198, 41, 0, 4),     // a.root-servers.net
	net.IPv4(199, 9, 14, 201),   // b.root-servers.net
	net.IPv4(192, 33, 4, 12),    // c.root-servers.net
	net.IPv4(199, 7, 91, 13),    // d.root-servers.net
	net.IPv4(192, 203, 230, 10), // e.root-servers.net
	net.IPv4(192, 5, 5, 241),    // f.root-servers.net
	net.IPv4(192, 112, 36, 4),   // g.root-servers.net
	net.IPv4(198, 97, 190, 53),  // h.root-servers.net
	net.IPv4(192, 36, 148, 17),  // i.root-servers.net
	net.IPv4(192, 58, 128, 30),  // j.root-servers.net
	net.IPv4(193, 0, 14, 129),   // k.root-servers.net
	net.IPv4(199, 7, 83, 42),    // l.root-servers.net
	net.IPv4(202, 12, 27, 33),   // m.root-servers.net
}

// Port is the well-known DNS service port; every upstream hop in this
// resolver, root or otherwise, is addressed on it.
const Port = 53

// Pick returns one root server address, chosen uniformly at random.
func Pick() (net.IP, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(addrs))))
	if err != nil {
		return nil, err
	}
	return addrs[n.Int64()], nil
}

// Addr returns Pick() as a ready-to-dial *net.UDPAddr on Port.
func Addr() (*net.UDPAddr, error) {
	ip, err := Pick()
	if err != nil {
		return nil, err
	}
	return &net.UDPAddr{IP: ip, Port: Port}, nil
}
