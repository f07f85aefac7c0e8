package host

import (
	"context"

	"warden/internal/permission"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
)

// Unattached returns an API for processes that run without a live platform
// session, such as the standalone captcha callback daemon. Mutations succeed
// as no-ops (the bot process reconciles roles from persisted challenge
// state) and reads report the platform as unreachable, which callers already
// treat as a deny or degrade condition.
func Unattached() API {
	return unattached{}
}

type unattached struct{}

func (unattached) GuildRoles(context.Context, id.GuildID) ([]Role, error) {
	return nil, derrors.New(derrors.CodeExternal, "no platform session attached")
}

func (unattached) Member(context.Context, id.GuildID, id.UserID) (*Member, error) {
	return nil, derrors.New(derrors.CodeExternal, "no platform session attached")
}

func (unattached) SetRolePermissions(context.Context, id.GuildID, id.RoleID, permission.Set) error {
	return nil
}

func (unattached) CreateRole(context.Context, id.GuildID, string, permission.Set) (*Role, error) {
	return nil, derrors.New(derrors.CodeExternal, "no platform session attached")
}

func (unattached) AddMemberRole(context.Context, id.GuildID, id.UserID, id.RoleID) error {
	return nil
}

func (unattached) RemoveMemberRole(context.Context, id.GuildID, id.UserID, id.RoleID) error {
	return nil
}

func (unattached) SendDirect(context.Context, id.UserID, string) error {
	return nil
}

func (unattached) SendChannel(context.Context, id.ChannelID, string) (string, error) {
	return "", derrors.New(derrors.CodeExternal, "no platform session attached")
}

func (unattached) AddReaction(context.Context, id.ChannelID, string, string) error {
	return nil
}
