// Package host defines the port to the platform's membership/role API. The
// security core never talks to the platform directly; it depends on these
// interfaces so the bot adapter and test fakes are interchangeable. Every
// call is fallible and is a suspension point under the bot's cooperative
// scheduler.
package host

import (
	"context"
	"time"

	"warden/internal/permission"
	id "warden/pkg/domain"
)

// Role is a snapshot of a guild role.
type Role struct {
	ID          id.RoleID
	GuildID     id.GuildID
	Name        string
	Position    int
	Permissions permission.Set
	Managed     bool // integration-owned roles cannot be edited or assigned
}

// Member is a snapshot of a guild member.
type Member struct {
	UserID   id.UserID
	GuildID  id.GuildID
	RoleIDs  []id.RoleID
	JoinedAt time.Time
	IsBot    bool
}

// RoleAPI covers guild role and membership mutations.
type RoleAPI interface {
	// GuildRoles lists all roles in a guild.
	GuildRoles(ctx context.Context, guildID id.GuildID) ([]Role, error)

	// Member fetches a member snapshot.
	Member(ctx context.Context, guildID id.GuildID, userID id.UserID) (*Member, error)

	// SetRolePermissions replaces a role's permission bitmask.
	SetRolePermissions(ctx context.Context, guildID id.GuildID, roleID id.RoleID, perms permission.Set) error

	// CreateRole creates a role and returns it.
	CreateRole(ctx context.Context, guildID id.GuildID, name string, perms permission.Set) (*Role, error)

	// AddMemberRole grants a role to a member.
	AddMemberRole(ctx context.Context, guildID id.GuildID, userID id.UserID, roleID id.RoleID) error

	// RemoveMemberRole revokes a role from a member.
	RemoveMemberRole(ctx context.Context, guildID id.GuildID, userID id.UserID, roleID id.RoleID) error
}

// Messenger covers user-facing delivery: denial notices, challenge prompts.
type Messenger interface {
	// SendDirect delivers a direct message to a user.
	SendDirect(ctx context.Context, userID id.UserID, content string) error

	// SendChannel posts a message to a channel and returns its message ID.
	SendChannel(ctx context.Context, channelID id.ChannelID, content string) (string, error)

	// AddReaction attaches a reaction to a message, used to seed emoji
	// challenge prompts.
	AddReaction(ctx context.Context, channelID id.ChannelID, messageID, emoji string) error
}

// API aggregates the full platform surface the core consumes.
type API interface {
	RoleAPI
	Messenger
}

// MemberPermissions folds a member's role permissions into one set. Roles not
// present in the index are skipped.
func MemberPermissions(m *Member, rolesByID map[id.RoleID]Role) permission.Set {
	var perms permission.Set
	if m == nil {
		return perms
	}
	for _, rid := range m.RoleIDs {
		if r, ok := rolesByID[rid]; ok {
			perms |= r.Permissions
		}
	}
	return perms
}

// HighestPosition returns the top role position a member holds. Members with
// no indexed roles sit at position 0.
func HighestPosition(m *Member, rolesByID map[id.RoleID]Role) int {
	highest := 0
	if m == nil {
		return highest
	}
	for _, rid := range m.RoleIDs {
		if r, ok := rolesByID[rid]; ok && r.Position > highest {
			highest = r.Position
		}
	}
	return highest
}

// IndexRoles builds a lookup map from a role list.
func IndexRoles(roles []Role) map[id.RoleID]Role {
	byID := make(map[id.RoleID]Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	return byID
}
