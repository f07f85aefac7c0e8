package gateway

import (
	"context"
	"errors"
	"log/slog"

	"warden/internal/audit"
	"warden/internal/host"
	"warden/internal/permission"
	"warden/internal/platform/metrics"
	id "warden/pkg/domain"
)

// AuditPublisher emits audit events for denied interactions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the interaction security gateway.
type Service struct {
	counters  CounterStore
	platform  host.API
	publisher AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(counters CounterStore, platform host.API, opts ...Option) (*Service, error) {
	if counters == nil {
		return nil, errors.New("counter store is required")
	}
	if platform == nil {
		return nil, errors.New("platform API is required")
	}
	svc := &Service{
		counters: counters,
		platform: platform,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckRateLimit counts the call against the user's fixed window for the
// category and reports whether it fits. Exactly Max calls per window are
// allowed. A counter store failure denies: rate limiting fails closed.
func (s *Service) CheckRateLimit(ctx context.Context, userID id.UserID, category Category) RateLimitResult {
	limit := LimitFor(category)
	key := string(userID) + ":" + string(category)

	count, err := s.counters.Increment(ctx, key, limit.Window)
	if err != nil {
		s.logger.ErrorContext(ctx, "rate counter unavailable, denying",
			"user_id", userID, "category", category, "error", err)
		return RateLimitResult{Allowed: false}
	}

	if count > limit.Max {
		if s.metrics != nil {
			s.metrics.RateLimitHits.WithLabelValues(string(category)).Inc()
		}
		return RateLimitResult{Allowed: false}
	}
	return RateLimitResult{Allowed: true, Remaining: limit.Max - count}
}

// ValidateButton runs the ordered validation pipeline for a button press,
// short-circuiting on the first failure. Every denial sends the actor a
// reason-specific message, best-effort.
func (s *Service) ValidateButton(ctx context.Context, in Interaction, opts ButtonOptions) Validation {
	if rl := s.CheckRateLimit(ctx, in.ActorID, opts.Category); !rl.Allowed {
		return s.deny(ctx, in, ReasonRateLimited,
			"You're doing that too fast. Wait a moment and try again.")
	}

	if !in.InGuild {
		return s.deny(ctx, in, ReasonUnsupportedContext,
			"That button only works inside a server.")
	}

	var targetID id.UserID
	if opts.TargetPattern != nil {
		m := opts.TargetPattern.FindStringSubmatch(in.CustomID)
		if len(m) < 2 {
			return s.deny(ctx, in, ReasonInvalidTarget,
				"That request doesn't reference a valid member.")
		}
		parsed, err := id.ParseUserID(m[1])
		if err != nil {
			return s.deny(ctx, in, ReasonInvalidTarget,
				"That request doesn't reference a valid member.")
		}
		targetID = parsed
	}

	if opts.RequireSelf && targetID != in.ActorID {
		return s.deny(ctx, in, ReasonNotSelf,
			"That button belongs to someone else.")
	}

	if opts.RequireStaff || opts.RequiredPerms != 0 {
		perms, err := s.actorPermissions(ctx, in)
		if err != nil {
			s.logger.ErrorContext(ctx, "permission lookup failed, denying",
				"guild_id", in.GuildID, "user_id", in.ActorID, "error", err)
			return s.deny(ctx, in, ReasonUnavailable,
				"Couldn't verify your permissions right now. Try again later.")
		}
		if opts.RequireStaff && !perms.HasAny(permission.Staff) {
			return s.deny(ctx, in, ReasonNotStaff,
				"Only staff members can use that.")
		}
		if opts.RequiredPerms != 0 && !perms.Has(permission.Administrator) {
			if missing := perms.Missing(opts.RequiredPerms); missing != 0 {
				return s.deny(ctx, in, ReasonMissingPermissions,
					"You're missing required permissions: "+missing.String())
			}
		}
	}

	return Validation{Allowed: true, TargetID: targetID}
}

func (s *Service) actorPermissions(ctx context.Context, in Interaction) (permission.Set, error) {
	member, err := s.platform.Member(ctx, in.GuildID, in.ActorID)
	if err != nil {
		return 0, err
	}
	roles, err := s.platform.GuildRoles(ctx, in.GuildID)
	if err != nil {
		return 0, err
	}
	return host.MemberPermissions(member, host.IndexRoles(roles)), nil
}

func (s *Service) deny(ctx context.Context, in Interaction, reason, message string) Validation {
	if s.metrics != nil {
		s.metrics.InteractionsDenied.WithLabelValues(reason).Inc()
	}
	s.logger.InfoContext(ctx, "interaction denied",
		"guild_id", in.GuildID, "user_id", in.ActorID, "reason", reason)

	action := audit.ActionInteractionDenied
	if reason == ReasonRateLimited {
		action = audit.ActionRateLimited
	}
	if s.publisher != nil {
		if err := s.publisher.Emit(ctx, audit.Event{
			GuildID: in.GuildID,
			UserID:  in.ActorID,
			Action:  action,
			Reason:  reason,
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "reason", reason, "error", err)
		}
	}

	if err := s.platform.SendDirect(ctx, in.ActorID, message); err != nil {
		s.logger.DebugContext(ctx, "denial message not delivered",
			"user_id", in.ActorID, "error", err)
	}

	return Validation{Allowed: false, Reason: reason}
}
