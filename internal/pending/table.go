// Package pending tracks in-flight resolutions, keyed by the 16-bit DNS
// transaction ID that correlates an upstream response with the query that
// caused it.
package pending

import (
	"net"
	"sync"
	"time"

	"github.com/blazskufca/iterative-dns/internal/dnsmsg"
)

// Entry is the state of one in-flight resolution. Stack is a non-empty
// LIFO: the bottom frame is the original client question; any additional
// frames are synthesized sub-queries resolving the address of a glueless
// NS name.
//
// Entry is shared between the single-threaded dispatch loop and the
// reaper goroutine, both of which read and, in the dispatch loop's case,
// mutate Stack through the same *Entry obtained from Table.Get. mu guards
// every access to Stack; ClientAddr and CreatedAt are set once at
// construction and never mutated afterward, so they need no lock.
type Entry struct {
	ClientAddr net.Addr
	CreatedAt  time.Time

	mu    sync.Mutex
	Stack []dnsmsg.Message
}

// Len reports the current depth of the sub-query stack.
func (e *Entry) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Stack)
}

// Bottom returns the original client question, the stack's first frame.
func (e *Entry) Bottom() dnsmsg.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Stack[0]
}

// Top returns the current top-of-stack query, the one most recently sent
// upstream.
func (e *Entry) Top() dnsmsg.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Stack[len(e.Stack)-1]
}

// Push adds a new sub-query frame to the top of the stack.
func (e *Entry) Push(m dnsmsg.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Stack = append(e.Stack, m)
}

// Pop removes the top frame. The caller must not call Pop when only one
// frame remains; doing so would violate the table's non-empty-stack
// invariant, so the resolver only pops when Len reports more than one frame.
func (e *Entry) Pop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Stack = e.Stack[:len(e.Stack)-1]
}

// Table is the pending-query table: a mutex-protected map from transaction
// ID to Entry. The mutex exists for the reaper goroutine's benefit; the
// event loop itself is single-threaded.
type Table struct {
	mu      sync.Mutex
	entries map[uint16]*Entry
}

// New creates an empty Table.
func New() *Table {
	return &Table{entries: make(map[uint16]*Entry)}
}

// Get returns the entry for id, if any.
func (t *Table) Get(id uint16) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return e, ok
}

// Insert records a new entry for id, replacing any existing one.
func (t *Table) Insert(id uint16, e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = e
}

// Remove deletes the entry for id, if present.
func (t *Table) Remove(id uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Expired returns the transaction IDs of every entry older than deadline as
// of now, for the reaper to abandon and report ServerFailure on.
func (t *Table) Expired(now time.Time, deadline time.Duration) []uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []uint16
	for id, e := range t.entries {
		if now.Sub(e.CreatedAt) > deadline {
			ids = append(ids, id)
		}
	}
	return ids
}
