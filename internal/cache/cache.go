// Package cache is a TTL-indexed map of answer records, keyed by record
// type and (lowercased) presentation-form owner name.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/blazskufca/iterative-dns/internal/dnsmsg"
)

// Key identifies a cache entry. Names are compared ASCII-case-insensitively,
// per RFC 1035 section 2.3.3; Key always stores the lowercased form so two
// differently-cased lookups of the same name collide as intended.
type Key struct {
	Type dnsmsg.Type
	Name string
}

// NewKey builds a Key, normalizing name to lowercase.
func NewKey(t dnsmsg.Type, name string) Key {
	return Key{Type: t, Name: strings.ToLower(name)}
}

type entry struct {
	record    dnsmsg.Record
	expiresAt time.Time
}

// Cache is a mutex-protected, in-memory, TTL-indexed record store. The
// mutex exists only because a background reaper (see internal/resolver)
// may run concurrently with the single-threaded event loop; the loop
// itself never shares this across goroutines of its own.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]entry)}
}

// Lookup returns the cached record for (t, name) with its TTL field
// rewritten to the number of seconds remaining until expiration. A miss
// (absent or expired) returns ok == false; an expired entry is removed as a
// side effect of the lookup (lazy eviction).
func (c *Cache) Lookup(t dnsmsg.Type, name string) (rec dnsmsg.Record, ok bool) {
	key := NewKey(t, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return dnsmsg.Record{}, false
	}

	now := time.Now()
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		return dnsmsg.Record{}, false
	}

	remaining := e.expiresAt.Sub(now)
	ttl := uint32(remaining / time.Second)
	rec = e.record
	rec.TTL = ttl
	return rec, true
}

// Insert stores record, keyed by its type and name, expiring record.TTL
// seconds from now.
func (c *Cache) Insert(record dnsmsg.Record) {
	key := NewKey(record.Data.Type(), record.Name)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		record:    record,
		expiresAt: time.Now().Add(time.Duration(record.TTL) * time.Second),
	}
}

// Sweep removes every entry that has expired as of now. It exists to bound
// memory for names that are cached but never looked up again; lookup-time
// eviction alone would let such entries linger indefinitely.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
