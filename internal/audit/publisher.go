// Package audit captures append-only security audit events. Emission is
// best-effort from the caller's point of view: services log and continue when
// the sink fails, so auditing can never turn a denial into an outage.
package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "warden/pkg/domain"
	"warden/pkg/requestcontext"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, guildID id.GuildID, userID id.UserID) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, guildID id.GuildID, userID id.UserID) ([]Event, error) {
	return p.store.ListByUser(ctx, guildID, userID)
}

// InMemoryStore keeps events per guild+user for tests and single-process use.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(event.GuildID) + ":" + string(event.UserID)
	s.events[key] = append(s.events[key], event)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, guildID id.GuildID, userID id.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := string(guildID) + ":" + string(userID)
	return append([]Event{}, s.events[key]...), nil
}
