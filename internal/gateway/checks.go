package gateway

import (
	"warden/internal/host"
	"warden/internal/permission"
	id "warden/pkg/domain"
)

// CheckBotPermissions reports whether the member's effective permissions
// cover every bit of required, and the missing bits when they don't.
// Administrator implies everything. Pure; callers fetch the snapshots.
func CheckBotPermissions(m *host.Member, rolesByID map[id.RoleID]host.Role, required permission.Set) (bool, permission.Set) {
	perms := host.MemberPermissions(m, rolesByID)
	if perms.Has(permission.Administrator) {
		return true, 0
	}
	missing := perms.Missing(required)
	return missing == 0, missing
}

// CheckHierarchy reports whether the actor outranks the target: the actor's
// highest role position must be strictly above the target's. Pure; must be
// checked before any kick, ban, or role removal.
func CheckHierarchy(actor, target *host.Member, rolesByID map[id.RoleID]host.Role) bool {
	return host.HighestPosition(actor, rolesByID) > host.HighestPosition(target, rolesByID)
}
