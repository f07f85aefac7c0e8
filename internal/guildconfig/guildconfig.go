// Package guildconfig stores per-guild security settings: the verified and
// unverified role IDs the challenge flow swaps on success, the verification
// channel, trusted roles, and the quarantine role name.
package guildconfig

import (
	"context"
	"sync"

	id "warden/pkg/domain"
)

// DefaultQuarantineRoleName is used when a guild has not picked its own.
const DefaultQuarantineRoleName = "Quarantine"

// Settings is a guild's security configuration. Zero values mean "not
// configured"; consumers treat unset role IDs as a skip, not an error.
type Settings struct {
	GuildID               id.GuildID
	VerifiedRoleID        id.RoleID
	UnverifiedRoleID      id.RoleID
	VerificationChannelID id.ChannelID
	TrustedRoleIDs        []id.RoleID
	QuarantineRoleName    string
}

// QuarantineRole returns the configured quarantine role name or the default.
func (s Settings) QuarantineRole() string {
	if s.QuarantineRoleName == "" {
		return DefaultQuarantineRoleName
	}
	return s.QuarantineRoleName
}

// Store persists guild settings.
type Store interface {
	// Get returns a guild's settings. Unconfigured guilds return zero-valued
	// Settings with the guild ID filled in, not an error.
	Get(ctx context.Context, guildID id.GuildID) (Settings, error)

	// Upsert creates or replaces a guild's settings.
	Upsert(ctx context.Context, settings Settings) error
}

// InMemoryStore keeps settings in a map for tests and single-process use.
type InMemoryStore struct {
	mu       sync.RWMutex
	settings map[id.GuildID]Settings
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{settings: make(map[id.GuildID]Settings)}
}

func (s *InMemoryStore) Get(_ context.Context, guildID id.GuildID) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.settings[guildID]; ok {
		return cfg, nil
	}
	return Settings{GuildID: guildID}, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.GuildID] = settings
	return nil
}
