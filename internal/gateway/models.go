// Package gateway validates and rate-limits sensitive interactions before
// they reach command logic. Every check fails closed: when a collaborator is
// unavailable the interaction is denied, never waved through.
package gateway

import (
	"regexp"
	"time"

	"warden/internal/permission"
	id "warden/pkg/domain"
)

// Category buckets interactions for rate limiting.
type Category string

const (
	CategoryVerify    Category = "verify"
	CategoryTicket    Category = "ticket"
	CategoryModAction Category = "mod_action"
	CategoryAppeal    Category = "appeal"
	CategoryGeneral   Category = "general"
)

// Limit is a fixed-window rate limit.
type Limit struct {
	Max    int
	Window time.Duration
}

var limits = map[Category]Limit{
	CategoryVerify:    {Max: 5, Window: 60 * time.Second},
	CategoryTicket:    {Max: 3, Window: 60 * time.Second},
	CategoryModAction: {Max: 10, Window: 60 * time.Second},
	CategoryAppeal:    {Max: 2, Window: 300 * time.Second},
	CategoryGeneral:   {Max: 15, Window: 60 * time.Second},
}

// LimitFor returns the limit for a category; unrecognized categories fall
// back to general.
func LimitFor(c Category) Limit {
	if l, ok := limits[c]; ok {
		return l
	}
	return limits[CategoryGeneral]
}

// RateLimitResult reports one CheckRateLimit decision.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
}

// Interaction is the slice of a button press the gateway needs.
type Interaction struct {
	GuildID   id.GuildID
	ChannelID id.ChannelID
	ActorID   id.UserID
	CustomID  string
	InGuild   bool
}

// ButtonOptions configures one ValidateButton pipeline run.
type ButtonOptions struct {
	Category Category
	// TargetPattern extracts a target user ID from the interaction's custom
	// ID; its first capture group must be the ID.
	TargetPattern *regexp.Regexp
	RequireSelf   bool
	RequireStaff  bool
	RequiredPerms permission.Set
}

// Validation is the outcome of ValidateButton.
type Validation struct {
	Allowed  bool
	Reason   string
	TargetID id.UserID
}

// Denial reasons, also used as metric labels.
const (
	ReasonRateLimited        = "rate_limited"
	ReasonUnsupportedContext = "unsupported_context"
	ReasonInvalidTarget      = "invalid_target"
	ReasonNotSelf            = "not_self"
	ReasonNotStaff           = "not_staff"
	ReasonMissingPermissions = "missing_permissions"
	ReasonUnavailable        = "unavailable"
)
