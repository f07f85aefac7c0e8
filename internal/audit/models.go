package audit

import (
	"time"

	id "warden/pkg/domain"
)

// Event is emitted from security logic to capture moderation-relevant
// actions. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Timestamp time.Time
	GuildID   id.GuildID
	UserID    id.UserID
	Action    string
	Reason    string
	Detail    string
}

// Actions recorded by the security core.
const (
	ActionInteractionDenied  = "interaction_denied"
	ActionRateLimited        = "rate_limited"
	ActionChallengeIssued    = "challenge_issued"
	ActionChallengeCompleted = "challenge_completed"
	ActionChallengeFailed    = "challenge_failed"
	ActionIncidentRecorded   = "incident_recorded"
	ActionLockdownApplied    = "lockdown_applied"
	ActionLockdownRestored   = "lockdown_restored"
	ActionMemberQuarantined  = "member_quarantined"
)
