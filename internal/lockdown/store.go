package lockdown

import (
	"context"
	"sort"
	"sync"

	id "warden/pkg/domain"
)

// BackupStore persists role permission backups. UpsertAll is all-or-nothing:
// either every backup in the batch is written or none are.
type BackupStore interface {
	UpsertAll(ctx context.Context, backups []Backup) error
	ListByGuild(ctx context.Context, guildID id.GuildID) ([]Backup, error)
}

// InMemoryStore is a map-backed BackupStore for tests and single-process
// deployments.
type InMemoryStore struct {
	mu      sync.Mutex
	backups map[id.GuildID]map[id.RoleID]Backup
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{backups: map[id.GuildID]map[id.RoleID]Backup{}}
}

func (s *InMemoryStore) UpsertAll(_ context.Context, backups []Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range backups {
		if s.backups[b.GuildID] == nil {
			s.backups[b.GuildID] = map[id.RoleID]Backup{}
		}
		s.backups[b.GuildID][b.RoleID] = b
	}
	return nil
}

func (s *InMemoryStore) ListByGuild(_ context.Context, guildID id.GuildID) ([]Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Backup, 0, len(s.backups[guildID]))
	for _, b := range s.backups[guildID] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleID < out[j].RoleID })
	return out, nil
}
