// Package statestore provides a capacity- and time-bounded key/value cache
// with sliding expiry. Every ephemeral per-user or per-guild record in the
// security core (rate-limit counters, cooldowns, in-flight markers) lives in
// one of these so abusive input cannot grow memory without bound.
//
// Each instance is constructed explicitly and owned by a single purpose; none
// of this state is shared or replicated across bot processes.
package statestore

import (
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	value        V
	lastAccessAt time.Time
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Size      int
	MaxSize   int
	TTL       time.Duration
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Store is a bounded cache keyed by string. Get and Set never fail; capacity
// pressure is resolved by evicting the least recently accessed entry.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]

	maxSize       int
	ttl           time.Duration
	sweepInterval time.Duration
	onEvict       func(key string, value V)
	now           func() time.Time
	logger        *slog.Logger

	hits      uint64
	misses    uint64
	evictions uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithOnEvict registers a callback invoked synchronously on every removal:
// lazy expiry, sweep, or capacity eviction. Panics in the callback are
// swallowed so caller code cannot corrupt store invariants.
func WithOnEvict[V any](fn func(key string, value V)) Option[V] {
	return func(s *Store[V]) { s.onEvict = fn }
}

// WithNow overrides the clock, letting tests drive TTL expiry
// deterministically.
func WithNow[V any](now func() time.Time) Option[V] {
	return func(s *Store[V]) { s.now = now }
}

// WithLogger attaches a logger for sweep reporting.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(s *Store[V]) { s.logger = logger }
}

// New constructs a store and starts its background sweep. Callers must
// Destroy the store on shutdown to stop the sweep goroutine.
func New[V any](maxSize int, ttl, sweepInterval time.Duration, opts ...Option[V]) *Store[V] {
	s := &Store[V]{
		entries:       make(map[string]*entry[V]),
		maxSize:       maxSize,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		now:           time.Now,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepInterval > 0 {
		go s.sweepLoop()
	}
	return s
}

// Get returns the value for key. Absent and stale keys miss; a stale entry is
// evicted on the spot. A hit refreshes the entry's last access time.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}
	now := s.now()
	if now.Sub(e.lastAccessAt) > s.ttl {
		s.removeLocked(key, e)
		s.misses++
		return zero, false
	}
	e.lastAccessAt = now
	s.hits++
	return e.value, true
}

// Set stores a value, refreshing last access time. Inserting a new key into a
// full store first evicts the entry with the oldest last access. The linear
// eviction scan is fine at the per-guild scale these stores run at; this is
// not a true O(1) LRU.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok {
		e.value = value
		e.lastAccessAt = now
		return
	}
	if len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.entries[key] = &entry[V]{value: value, lastAccessAt: now}
}

// Has reports whether key is present and unexpired, without refreshing it.
func (s *Store[V]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	return s.now().Sub(e.lastAccessAt) <= s.ttl
}

// Delete removes a key, reporting whether it was present. The onEvict
// callback fires for explicit deletes too.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(key, e)
	return true
}

// Cleanup removes every entry whose last access is older than the TTL and
// returns the number removed. The background sweep calls this on its
// interval; tests may call it directly.
func (s *Store[V]) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.lastAccessAt) > s.ttl {
			s.removeLocked(key, e)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of store counters.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Size:      len(s.entries),
		MaxSize:   s.maxSize,
		TTL:       s.ttl,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}

// Destroy stops the background sweep and clears all state. Safe to call more
// than once.
func (s *Store[V]) Destroy() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V])
}

func (s *Store[V]) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 && s.logger != nil {
				s.logger.Debug("state store sweep", "removed", n, "size", s.Stats().Size)
			}
		}
	}
}

func (s *Store[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldest    *entry[V]
	)
	for key, e := range s.entries {
		if oldest == nil || e.lastAccessAt.Before(oldest.lastAccessAt) {
			oldestKey, oldest = key, e
		}
	}
	if oldest != nil {
		s.removeLocked(oldestKey, oldest)
	}
}

// removeLocked deletes an entry and fires onEvict. Must be called while
// holding s.mu.
func (s *Store[V]) removeLocked(key string, e *entry[V]) {
	delete(s.entries, key)
	s.evictions++
	if s.onEvict == nil {
		return
	}
	func() {
		defer func() { _ = recover() }()
		s.onEvict(key, e.value)
	}()
}
