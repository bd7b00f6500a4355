// Package glue implements the NS-address resolver helper: given a received
// message's authority and additional sections, decide whether delegation
// can continue immediately (glue present) or requires a sub-resolution
// (glueless NS).
package glue

import (
	"crypto/rand"
	"math/big"
	"net"

	"github.com/blazskufca/iterative-dns/internal/dnsmsg"
)

// Outcome tags which of the two disjoint shapes a Resolve call produced.
type Outcome int

const (
	// OutcomeAddress means Address holds a usable next-hop IPv4.
	OutcomeAddress Outcome = iota
	// OutcomeNames means Names holds NS names with no glue; one must be
	// resolved via a sub-query before delegation can continue.
	OutcomeNames
)

// Result is the two-outcome tagged variant the NS-address resolver
// produces: either a single address to delegate to, or a list of NS names
// requiring a sub-resolution. Exactly one of Address/Names is meaningful,
// selected by Outcome.
type Result struct {
	Outcome Outcome
	Address net.IP
	Names   []string
}

// Resolve inspects msg's authority and additional sections. It collects the
// presentation-form names of every NS record in the authority section,
// then looks for A records in the additional section whose owner name is
// one of those NS names (glue). If any glue addresses were found, it
// returns one chosen uniformly at random; otherwise it returns the set of
// NS names with no glue (order unspecified), for the caller to start a
// sub-resolution on.
func Resolve(msg dnsmsg.Message) (Result, error) {
	nsNames := make(map[string]struct{})
	for _, rr := range msg.Authority {
		if ns, ok := rr.Data.(dnsmsg.NSRecord); ok {
			nsNames[ns.Name] = struct{}{}
		}
	}

	var glueAddrs []net.IP
	for _, rr := range msg.Additional {
		a, ok := rr.Data.(dnsmsg.ARecord)
		if !ok {
			continue
		}
		if _, known := nsNames[rr.Name]; known {
			glueAddrs = append(glueAddrs, a.Addr)
		}
	}

	if len(glueAddrs) > 0 {
		addr, err := pickIP(glueAddrs)
		if err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeAddress, Address: addr}, nil
	}

	names := make([]string, 0, len(nsNames))
	for name := range nsNames {
		names = append(names, name)
	}
	return Result{Outcome: OutcomeNames, Names: names}, nil
}

func pickIP(candidates []net.IP) (net.IP, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return nil, err
	}
	return candidates[n.Int64()], nil
}

// PickName chooses one NS name uniformly at random from names. Callers use
// this on a Result with Outcome == OutcomeNames before starting a
// sub-resolution.
func PickName(names []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(names))))
	if err != nil {
		return "", err
	}
	return names[n.Int64()], nil
}
