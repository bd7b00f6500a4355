// Package resolver implements the iterative resolution engine: the
// single-socket event loop that multiplexes many in-flight recursive
// resolutions by correlating them on the DNS transaction ID, drives the
// root→TLD→authoritative delegation walk, and serves answers from cache.
package resolver

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/blazskufca/iterative-dns/internal/cache"
	"github.com/blazskufca/iterative-dns/internal/dnsmsg"
	"github.com/blazskufca/iterative-dns/internal/glue"
	"github.com/blazskufca/iterative-dns/internal/pending"
	"github.com/blazskufca/iterative-dns/internal/rootservers"
)

// maxDatagramSize bounds what a single read accepts; larger datagrams are
// truncated by the receive buffer and fail decoding, same as any other
// malformed input.
const maxDatagramSize = 4096

// Engine owns the listening socket, the cache, and the pending-query table.
// The dispatch loop is single-threaded; only the background reaper touches
// the cache/pending table from another goroutine, which is why both carry
// their own mutex.
type Engine struct {
	conn    *net.UDPConn
	cache   *cache.Cache
	pending *pending.Table
	logger  *slog.Logger
}

// New constructs an Engine bound to conn.
func New(conn *net.UDPConn, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		conn:    conn,
		cache:   cache.New(),
		pending: pending.New(),
		logger:  logger,
	}
}

// Run reads datagrams from the socket until it errors, dispatching each one
// in turn. A decode failure or a protocol-level edge case is handled per
// datagram and never stops the loop; only a socket-level read error does,
// since that indicates the transport itself is no longer usable.
func (e *Engine) Run() error {
	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			return fmt.Errorf("resolver: read udp: %w", err)
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		e.dispatch(datagram, from)
	}
}

// dispatch decodes one datagram and routes it per the engine's dispatch
// table, keyed on whether its transaction ID has a pending entry.
func (e *Engine) dispatch(datagram []byte, from *net.UDPAddr) {
	msg, err := dnsmsg.Unmarshal(datagram)
	if err != nil {
		e.logger.Debug("dropping malformed datagram", slog.Any("from", from), slog.Any("error", err))
		return
	}

	entry, ok := e.pending.Get(msg.Header.ID)
	if !ok {
		e.dispatchNewQuery(msg, from)
		return
	}
	e.dispatchPendingResponse(msg.Header.ID, entry, msg, from)
}

// dispatchNewQuery handles branch A: a datagram whose transaction ID has
// no pending entry.
func (e *Engine) dispatchNewQuery(msg dnsmsg.Message, from *net.UDPAddr) {
	if msg.Header.QR {
		e.logger.Debug("dropping response with unknown txid", slog.Int("id", int(msg.Header.ID)))
		return
	}
	if len(msg.Answers) != 0 {
		e.logger.Debug("dropping query that already carries answers", slog.Int("id", int(msg.Header.ID)))
		return
	}
	if msg.Header.QDCount != 1 || len(msg.Questions) != 1 {
		e.logger.Debug("refusing query with qdcount != 1", slog.Int("id", int(msg.Header.ID)))
		e.send(buildRefused(msg), from)
		return
	}

	question := msg.Questions[0]
	if rec, hit := e.cache.Lookup(question.Type, question.Name); hit {
		e.logger.Debug("serving cache hit", slog.String("name", question.Name), slog.String("type", question.Type.String()))
		e.send(buildCacheHitResponse(msg, rec), from)
		return
	}

	e.pending.Insert(msg.Header.ID, &pending.Entry{
		ClientAddr: from,
		Stack:      []dnsmsg.Message{msg},
		CreatedAt:  time.Now(),
	})

	root, err := rootservers.Addr()
	if err != nil {
		e.logger.Error("failed to pick root server", slog.Any("error", err))
		e.pending.Remove(msg.Header.ID)
		return
	}
	e.logger.Debug("starting fresh resolution at root",
		slog.String("name", question.Name), slog.Any("root", root))
	e.send(msg, root)
}

// dispatchPendingResponse handles branch B: a datagram correlating with an
// in-flight resolution.
func (e *Engine) dispatchPendingResponse(id uint16, entry *pending.Entry, msg dnsmsg.Message, from *net.UDPAddr) {
	if sameAddr(from, entry.ClientAddr) {
		// The downstream client re-sent a query colliding with an
		// in-flight resolution upstream. This is a guard, not a
		// resolution: the pending entry is left untouched and the event
		// loop does not fall through to treat this datagram as an
		// upstream response.
		e.logger.Debug("refusing colliding client re-send", slog.Int("id", int(id)))
		e.send(buildRefused(msg), from)
		return
	}

	if len(msg.Answers) != 0 {
		e.handleAnswer(id, entry, msg)
		return
	}
	e.handleDelegation(id, entry, msg)
}

// handleAnswer processes branch B.2: the datagram carries answers.
func (e *Engine) handleAnswer(id uint16, entry *pending.Entry, msg dnsmsg.Message) {
	if entry.Len() > 1 {
		// This answer belongs to a synthesized sub-query resolving the
		// address of a glueless NS.
		a, ok := msg.Answers[0].Data.(dnsmsg.ARecord)
		if !ok {
			e.logger.Warn("abandoning resolution: sub-query answer is not an A record",
				slog.Int("id", int(id)))
			e.pending.Remove(id)
			e.send(buildServerFailure(entry.Bottom()), entry.ClientAddr)
			return
		}

		entry.Pop()
		target := &net.UDPAddr{IP: a.Addr, Port: rootservers.Port}
		e.logger.Debug("resolved glueless NS address, resuming delegation",
			slog.Int("id", int(id)), slog.Any("target", target))
		e.send(entry.Top(), target)
		return
	}

	// The answer belongs to the client's original question.
	for _, ans := range msg.Answers {
		e.cache.Insert(ans)
	}
	e.logger.Debug("forwarding answer to client", slog.Int("id", int(id)), slog.Any("client", entry.ClientAddr))
	e.send(msg, entry.ClientAddr)
	e.pending.Remove(id)
}

// handleDelegation processes branch B.3: the datagram has no answers, so
// its authority/additional sections are inspected for the next hop.
func (e *Engine) handleDelegation(id uint16, entry *pending.Entry, msg dnsmsg.Message) {
	result, err := glue.Resolve(msg)
	if err != nil {
		e.logger.Error("glue resolution failed", slog.Int("id", int(id)), slog.Any("error", err))
		e.pending.Remove(id)
		e.send(buildServerFailure(entry.Bottom()), entry.ClientAddr)
		return
	}

	switch result.Outcome {
	case glue.OutcomeAddress:
		target := &net.UDPAddr{IP: result.Address, Port: rootservers.Port}
		e.logger.Debug("following glue to next hop", slog.Int("id", int(id)), slog.Any("target", target))
		e.send(entry.Top(), target)

	case glue.OutcomeNames:
		if len(result.Names) == 0 {
			// Neither an address nor a name: nothing left to delegate to.
			e.logger.Debug("no delegation info, forwarding to client", slog.Int("id", int(id)))
			e.send(msg, entry.ClientAddr)
			e.pending.Remove(id)
			return
		}

		name, err := glue.PickName(result.Names)
		if err != nil {
			e.logger.Error("failed to pick NS name", slog.Any("error", err))
			e.pending.Remove(id)
			e.send(buildServerFailure(entry.Bottom()), entry.ClientAddr)
			return
		}

		root, err := rootservers.Addr()
		if err != nil {
			e.logger.Error("failed to pick root server", slog.Any("error", err))
			e.pending.Remove(id)
			e.send(buildServerFailure(entry.Bottom()), entry.ClientAddr)
			return
		}

		// The txid is reused across this nested sub-query: an inherent
		// limitation of keying the pending table on the client's own
		// transaction ID rather than a server-chosen per-hop nonce.
		subQuery := buildSubQuery(id, name)
		entry.Push(subQuery)
		e.logger.Debug("glueless NS, starting sub-resolution",
			slog.Int("id", int(id)), slog.String("ns", name), slog.Any("root", root))
		e.send(subQuery, root)
	}
}

func (e *Engine) send(msg dnsmsg.Message, to net.Addr) {
	buf, err := msg.Marshal()
	if err != nil {
		e.logger.Error("failed to marshal outgoing message", slog.Any("error", err))
		return
	}
	udpAddr, ok := to.(*net.UDPAddr)
	if !ok {
		resolved, err := net.ResolveUDPAddr("udp", to.String())
		if err != nil {
			e.logger.Error("failed to resolve destination address", slog.Any("error", err))
			return
		}
		udpAddr = resolved
	}
	if _, err := e.conn.WriteToUDP(buf, udpAddr); err != nil {
		e.logger.Error("failed to write datagram", slog.Any("to", udpAddr), slog.Any("error", err))
	}
}

func sameAddr(a *net.UDPAddr, b net.Addr) bool {
	ub, ok := b.(*net.UDPAddr)
	if !ok {
		return a.String() == b.String()
	}
	return a.IP.Equal(ub.IP) && a.Port == ub.Port
}
