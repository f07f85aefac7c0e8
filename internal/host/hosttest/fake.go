// Package hosttest provides an in-memory host.API fake for unit tests. It
// favors clarity over performance, mirrors the platform's observable
// behavior, and records every mutation so tests can assert on call order and
// partial-failure handling.
package hosttest

import (
	"context"
	"fmt"
	"sync"

	"warden/internal/host"
	"warden/internal/permission"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
)

// Fake implements host.API backed by maps.
type Fake struct {
	mu      sync.Mutex
	roles   map[id.GuildID]map[id.RoleID]host.Role
	members map[string]*host.Member // guild+user composite key

	nextRoleID uint64

	// FailFor makes named operations fail: keys are "set_permissions",
	// "add_role", "remove_role", "create_role", "send_direct",
	// "send_channel", "add_reaction", "member", "guild_roles".
	FailFor map[string]bool
	// FailRoles makes SetRolePermissions fail for specific roles only.
	FailRoles map[id.RoleID]bool

	PermissionSets []PermissionSetCall
	RoleGrants     []RoleChange
	RoleRevokes    []RoleChange
	Directs        []DirectMessage
}

// PermissionSetCall records one SetRolePermissions invocation.
type PermissionSetCall struct {
	RoleID id.RoleID
	Perms  permission.Set
}

// RoleChange records a role grant or revoke on a member.
type RoleChange struct {
	UserID id.UserID
	RoleID id.RoleID
}

// DirectMessage records a SendDirect invocation.
type DirectMessage struct {
	UserID  id.UserID
	Content string
}

func New() *Fake {
	return &Fake{
		roles:      map[id.GuildID]map[id.RoleID]host.Role{},
		members:    map[string]*host.Member{},
		nextRoleID: 90000000000000000,
		FailFor:    map[string]bool{},
		FailRoles:  map[id.RoleID]bool{},
	}
}

func memberKey(guildID id.GuildID, userID id.UserID) string {
	return string(guildID) + ":" + string(userID)
}

// SeedRole installs a role snapshot.
func (f *Fake) SeedRole(r host.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles[r.GuildID] == nil {
		f.roles[r.GuildID] = map[id.RoleID]host.Role{}
	}
	f.roles[r.GuildID][r.ID] = r
}

// SeedMember installs a member snapshot.
func (f *Fake) SeedMember(m host.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := m
	cp.RoleIDs = append([]id.RoleID(nil), m.RoleIDs...)
	f.members[memberKey(m.GuildID, m.UserID)] = &cp
}

// Role returns the current snapshot of a seeded role.
func (f *Fake) Role(guildID id.GuildID, roleID id.RoleID) (host.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[guildID][roleID]
	return r, ok
}

// MemberSnapshot returns the current state of a seeded member.
func (f *Fake) MemberSnapshot(guildID id.GuildID, userID id.UserID) (host.Member, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return host.Member{}, false
	}
	cp := *m
	cp.RoleIDs = append([]id.RoleID(nil), m.RoleIDs...)
	return cp, true
}

func (f *Fake) fail(op string) error {
	if f.FailFor[op] {
		return derrors.New(derrors.CodeExternal, op+" rejected by platform")
	}
	return nil
}

func (f *Fake) GuildRoles(_ context.Context, guildID id.GuildID) ([]host.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("guild_roles"); err != nil {
		return nil, err
	}
	out := make([]host.Role, 0, len(f.roles[guildID]))
	for _, r := range f.roles[guildID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *Fake) Member(_ context.Context, guildID id.GuildID, userID id.UserID) (*host.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("member"); err != nil {
		return nil, err
	}
	m, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return nil, derrors.New(derrors.CodeNotFound, "member not found")
	}
	cp := *m
	cp.RoleIDs = append([]id.RoleID(nil), m.RoleIDs...)
	return &cp, nil
}

func (f *Fake) SetRolePermissions(_ context.Context, guildID id.GuildID, roleID id.RoleID, perms permission.Set) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("set_permissions"); err != nil {
		return err
	}
	if f.FailRoles[roleID] {
		return derrors.New(derrors.CodeExternal, "missing permission to edit role")
	}
	r, ok := f.roles[guildID][roleID]
	if !ok {
		return derrors.New(derrors.CodeNotFound, "role not found")
	}
	r.Permissions = perms
	f.roles[guildID][roleID] = r
	f.PermissionSets = append(f.PermissionSets, PermissionSetCall{RoleID: roleID, Perms: perms})
	return nil
}

func (f *Fake) CreateRole(_ context.Context, guildID id.GuildID, name string, perms permission.Set) (*host.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create_role"); err != nil {
		return nil, err
	}
	f.nextRoleID++
	r := host.Role{
		ID:          id.RoleID(fmt.Sprintf("%d", f.nextRoleID)),
		GuildID:     guildID,
		Name:        name,
		Permissions: perms,
	}
	if f.roles[guildID] == nil {
		f.roles[guildID] = map[id.RoleID]host.Role{}
	}
	f.roles[guildID][r.ID] = r
	return &r, nil
}

func (f *Fake) AddMemberRole(_ context.Context, guildID id.GuildID, userID id.UserID, roleID id.RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("add_role"); err != nil {
		return err
	}
	m, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return derrors.New(derrors.CodeNotFound, "member not found")
	}
	for _, rid := range m.RoleIDs {
		if rid == roleID {
			return nil
		}
	}
	m.RoleIDs = append(m.RoleIDs, roleID)
	f.RoleGrants = append(f.RoleGrants, RoleChange{UserID: userID, RoleID: roleID})
	return nil
}

func (f *Fake) RemoveMemberRole(_ context.Context, guildID id.GuildID, userID id.UserID, roleID id.RoleID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("remove_role"); err != nil {
		return err
	}
	m, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return derrors.New(derrors.CodeNotFound, "member not found")
	}
	kept := m.RoleIDs[:0]
	for _, rid := range m.RoleIDs {
		if rid != roleID {
			kept = append(kept, rid)
		}
	}
	m.RoleIDs = kept
	f.RoleRevokes = append(f.RoleRevokes, RoleChange{UserID: userID, RoleID: roleID})
	return nil
}

func (f *Fake) SendDirect(_ context.Context, userID id.UserID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("send_direct"); err != nil {
		return err
	}
	f.Directs = append(f.Directs, DirectMessage{UserID: userID, Content: content})
	return nil
}

func (f *Fake) SendChannel(_ context.Context, channelID id.ChannelID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("send_channel"); err != nil {
		return "", err
	}
	return "msg-" + string(channelID), nil
}

func (f *Fake) AddReaction(_ context.Context, _ id.ChannelID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail("add_reaction")
}
