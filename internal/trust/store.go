package trust

import (
	"context"
	"sync"
	"time"

	id "warden/pkg/domain"
)

// IncidentStore persists per-(guild,user) incident counters. Stores are pure
// I/O; classification of incident types belongs in the service.
type IncidentStore interface {
	// Increment bumps the incident counter (and the spam counter when
	// spamLike) atomically, creating the record if absent.
	Increment(ctx context.Context, guildID id.GuildID, userID id.UserID, spamLike bool, now time.Time) (*IncidentRecord, error)

	// Get returns the record for a member, or nil when none exists.
	Get(ctx context.Context, guildID id.GuildID, userID id.UserID) (*IncidentRecord, error)

	// DecayOlderThan decrements RecentIncidents by exactly one for every
	// record whose last incident predates cutoff, returning the number of
	// records touched. Full decay takes repeated runs.
	DecayOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// ModerationSource reads warning/strike counts and verification status from
// the persistence collaborator.
type ModerationSource interface {
	Moderation(ctx context.Context, guildID id.GuildID, userID id.UserID) (warnings, strikes int, verified bool, err error)
}

// InMemoryIncidentStore keeps counters in a map for tests and single-process
// use.
type InMemoryIncidentStore struct {
	mu      sync.Mutex
	records map[string]*IncidentRecord
}

func NewInMemoryIncidentStore() *InMemoryIncidentStore {
	return &InMemoryIncidentStore{records: make(map[string]*IncidentRecord)}
}

func incidentKey(guildID id.GuildID, userID id.UserID) string {
	return string(guildID) + ":" + string(userID)
}

func (s *InMemoryIncidentStore) Increment(_ context.Context, guildID id.GuildID, userID id.UserID, spamLike bool, now time.Time) (*IncidentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := incidentKey(guildID, userID)
	rec, ok := s.records[key]
	if !ok {
		rec = &IncidentRecord{GuildID: guildID, UserID: userID}
		s.records[key] = rec
	}
	rec.RecentIncidents++
	if spamLike {
		rec.SpamFlags++
	}
	rec.LastIncidentAt = now
	cp := *rec
	return &cp, nil
}

func (s *InMemoryIncidentStore) Get(_ context.Context, guildID id.GuildID, userID id.UserID) (*IncidentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[incidentKey(guildID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemoryIncidentStore) DecayOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := 0
	for _, rec := range s.records {
		if rec.RecentIncidents > 0 && rec.LastIncidentAt.Before(cutoff) {
			rec.RecentIncidents--
			touched++
		}
	}
	return touched, nil
}
