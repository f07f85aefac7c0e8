package trust

import (
	"time"

	id "warden/pkg/domain"
)

// Factors are the behavioral inputs to the risk score. They are assembled on
// demand from the platform and persistence collaborators and never stored as
// a first-class record.
type Factors struct {
	AccountAge      time.Duration
	MemberFor       time.Duration
	IsVerified      bool
	RoleCount       int
	Warnings        int
	Strikes         int
	SpamFlags       int
	RecentIncidents int
}

// IncidentType classifies a recorded incident.
type IncidentType string

const (
	IncidentSpam        IncidentType = "spam"
	IncidentMentionSpam IncidentType = "mention_spam"
	IncidentLinkSpam    IncidentType = "link_spam"
	IncidentInviteSpam  IncidentType = "invite_spam"
	IncidentRaid        IncidentType = "raid"
	IncidentHarassment  IncidentType = "harassment"
	IncidentEvasion     IncidentType = "evasion"
	IncidentOther       IncidentType = "other"
)

// spamLike is the closed set of incident types that also bump the spam flag
// counter.
var spamLike = map[IncidentType]bool{
	IncidentSpam:        true,
	IncidentMentionSpam: true,
	IncidentLinkSpam:    true,
	IncidentInviteSpam:  true,
}

// IsSpamLike reports whether the incident type counts toward spam flags.
func (t IncidentType) IsSpamLike() bool { return spamLike[t] }

// IncidentRecord is the persisted per-(guild,user) incident counter pair.
// RecentIncidents decays by one per decay run once the record goes quiet;
// SpamFlags only ever grows.
type IncidentRecord struct {
	GuildID         id.GuildID
	UserID          id.UserID
	RecentIncidents int
	SpamFlags       int
	LastIncidentAt  time.Time
}
