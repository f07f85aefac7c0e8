package gateway

import (
	"context"
	"sync"
	"time"

	"warden/internal/platform/metrics"
	"warden/internal/statestore"
	"warden/pkg/requestcontext"
)

// CounterStore increments a fixed-window counter and returns the count for
// the current window, the incremented call included.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
}

type rateEntry struct {
	count       int
	windowStart time.Time
}

// MemoryCounterStore keeps fixed-window counters in a bounded in-process
// store. An outer mutex serializes the whole read-modify-write: the bounded
// store locks Get and Set individually, and the gap between them is exactly
// where two concurrent calls for one key could both observe the same count.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries *statestore.Store[*rateEntry]
}

// NewMemoryCounterStore builds a counter store bounded to maxSize tracked
// keys. Entries idle longer than ttl are dropped by the bounded store, which
// doubles as window cleanup when every window is shorter than the ttl.
func NewMemoryCounterStore(maxSize int, ttl, sweepInterval time.Duration, opts ...statestore.Option[*rateEntry]) *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: statestore.New(maxSize, ttl, sweepInterval, opts...),
	}
}

func (s *MemoryCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries.Get(key)
	if !ok || now.Sub(entry.windowStart) > window {
		entry = &rateEntry{windowStart: now}
	}
	entry.count++
	s.entries.Set(key, entry)
	return entry.count, nil
}

// Destroy stops the underlying store's sweep goroutine.
func (s *MemoryCounterStore) Destroy() {
	s.entries.Destroy()
}

// EvictionMetric returns a store option that counts every TTL, sweep, and
// capacity eviction under the given store purpose label.
func EvictionMetric(met *metrics.Metrics, purpose string) statestore.Option[*rateEntry] {
	return statestore.WithOnEvict(func(string, *rateEntry) {
		met.StateStoreEvictions.WithLabelValues(purpose).Inc()
	})
}
