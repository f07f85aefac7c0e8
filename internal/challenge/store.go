package challenge

import (
	"context"
	"sort"
	"sync"
	"time"

	id "warden/pkg/domain"
)

// Store persists challenge records. Stores are pure I/O; attempt accounting
// and answer comparison belong in the service.
type Store interface {
	// Create inserts a new record.
	Create(ctx context.Context, rec *Record) error

	// Latest returns the most recently created non-terminal, unexpired
	// record for a member, or nil when none exists.
	Latest(ctx context.Context, guildID id.GuildID, userID id.UserID, now time.Time) (*Record, error)

	// Update saves changes to an existing record.
	Update(ctx context.Context, rec *Record) error

	// MarkExpired marks every non-terminal record whose expiry has passed as
	// failed, returning the number of records touched.
	MarkExpired(ctx context.Context, now time.Time) (int, error)
}

// InMemoryStore keeps challenge records in a map for tests and
// single-process use.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record // keyed by record ID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneRecord(rec)
	s.records[rec.ID] = cp
	return nil
}

func (s *InMemoryStore) Latest(_ context.Context, guildID id.GuildID, userID id.UserID, now time.Time) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*Record
	for _, rec := range s.records {
		if rec.GuildID == guildID && rec.UserID == userID && !rec.Terminal() && !rec.ExpiredAt(now) {
			candidates = append(candidates, rec)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return cloneRecord(candidates[0]), nil
}

func (s *InMemoryStore) Update(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *InMemoryStore) MarkExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := 0
	for _, rec := range s.records {
		if !rec.Terminal() && rec.ExpiredAt(now) {
			rec.Failed = true
			touched++
		}
	}
	return touched, nil
}

// Get returns a record by ID, for tests.
func (s *InMemoryStore) Get(recID string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recID]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

func cloneRecord(rec *Record) *Record {
	cp := *rec
	cp.Data = append([]string(nil), rec.Data...)
	return &cp
}
