// Package lockdown clamps destructive permissions across a guild's roles
// during an incident, keeps a recoverable backup of the original bitmasks,
// and can quarantine individual members.
package lockdown

import (
	"time"

	"warden/internal/permission"
	id "warden/pkg/domain"
)

// Backup records a role's permission bitmask as it was before a lockdown
// clamped it. Keyed uniquely by (guild, role); a re-run before a restore
// overwrites it.
type Backup struct {
	GuildID     id.GuildID
	RoleID      id.RoleID
	Permissions permission.Set
	BackedUpAt  time.Time
}

// RoleOutcome reports the result of one live permission mutation. Err is nil
// on success.
type RoleOutcome struct {
	RoleID id.RoleID
	Err    error
}

// Failed counts the outcomes that carry an error.
func Failed(outcomes []RoleOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
