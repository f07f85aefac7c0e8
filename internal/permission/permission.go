// Package permission models the host platform's role permission bitmask as a
// fixed-width flag set. The destructive subset is a compile-time constant so
// lockdown clamping and restore verification are plain bit arithmetic.
package permission

import "strings"

// Set is a 64-bit permission bitmask.
type Set uint64

const (
	CreateInvites Set = 1 << iota
	KickMembers
	BanMembers
	Administrator
	ManageChannels
	ManageGuild
	AddReactions
	ViewAuditLog
	ViewChannels
	SendMessages
	ManageMessages
	EmbedLinks
	AttachFiles
	MentionEveryone
	UseExternalEmojis
	ChangeNickname
	ManageNicknames
	ManageRoles
	ManageWebhooks
	ModerateMembers
)

// Destructive is the set of permissions stripped during lockdown and used to
// decide which roles make a member dangerous.
const Destructive = Administrator | ManageChannels | ManageRoles | BanMembers | KickMembers

// Staff is the set of permissions any one of which marks a member as
// staff-equivalent for gateway checks.
const Staff = Administrator | ManageGuild | ModerateMembers | KickMembers | BanMembers

var names = map[Set]string{
	CreateInvites:     "create_invites",
	KickMembers:       "kick_members",
	BanMembers:        "ban_members",
	Administrator:     "administrator",
	ManageChannels:    "manage_channels",
	ManageGuild:       "manage_guild",
	AddReactions:      "add_reactions",
	ViewAuditLog:      "view_audit_log",
	ViewChannels:      "view_channels",
	SendMessages:      "send_messages",
	ManageMessages:    "manage_messages",
	EmbedLinks:        "embed_links",
	AttachFiles:       "attach_files",
	MentionEveryone:   "mention_everyone",
	UseExternalEmojis: "use_external_emojis",
	ChangeNickname:    "change_nickname",
	ManageNicknames:   "manage_nicknames",
	ManageRoles:       "manage_roles",
	ManageWebhooks:    "manage_webhooks",
	ModerateMembers:   "moderate_members",
}

// Has reports whether every bit in p is present in s. Administrator does not
// imply other bits here; implication is host platform policy, not bitmask
// arithmetic, and callers that want it check Administrator explicitly.
func (s Set) Has(p Set) bool { return s&p == p }

// HasAny reports whether at least one bit of p is present in s.
func (s Set) HasAny(p Set) bool { return s&p != 0 }

// Clamp removes every bit of p from s (AND-NOT).
func (s Set) Clamp(p Set) Set { return s &^ p }

// Missing returns the bits of p absent from s.
func (s Set) Missing(p Set) Set { return p &^ s }

// Names lists the human-readable names of the bits present in s, in bit
// order. Unknown bits are skipped.
func (s Set) Names() []string {
	var out []string
	for bit := Set(1); bit != 0 && bit <= s; bit <<= 1 {
		if s&bit != 0 {
			if n, ok := names[bit]; ok {
				out = append(out, n)
			}
		}
	}
	return out
}

func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	return strings.Join(s.Names(), "|")
}
