package resolver

import (
	"context"
	"log/slog"
	"time"
)

// defaultReapInterval is how often the reaper sweeps the pending table,
// independent of the deadline entries are reaped at.
const defaultReapInterval = 2 * time.Second

// RunReaper periodically abandons resolutions that have been in flight
// longer than deadline, sending their original client a ServerFailure and
// freeing the transaction ID for reuse, and sweeps the cache of entries
// whose TTL has lapsed without ever being looked up again. It runs on its
// own goroutine, separate from the single-threaded dispatch loop in Run,
// which is why both the cache and the pending table are mutex-protected;
// UDP writes from multiple goroutines are safe, so RunReaper calls e.send
// directly.
func (e *Engine) RunReaper(ctx context.Context, deadline time.Duration) {
	ticker := time.NewTicker(defaultReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.reapOnce(now, deadline)
			e.cache.Sweep()
		}
	}
}

func (e *Engine) reapOnce(now time.Time, deadline time.Duration) {
	for _, id := range e.pending.Expired(now, deadline) {
		entry, ok := e.pending.Get(id)
		if !ok {
			continue
		}
		e.logger.Warn("abandoning resolution past deadline",
			slog.Int("id", int(id)), slog.Duration("deadline", deadline))
		e.send(buildServerFailure(entry.Bottom()), entry.ClientAddr)
		e.pending.Remove(id)
	}
}
