// Package trust derives how much a member should be trusted. The score
// itself is a pure function (scorer.go); this service owns the fallible part:
// assembling factors from the platform and persistence collaborators, and
// maintaining the incident counters that feed back into future scores.
package trust

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"warden/internal/audit"
	"warden/internal/host"
	"warden/internal/platform/metrics"
	"warden/pkg/derrors"
	id "warden/pkg/domain"
	"warden/pkg/requestcontext"
)

// decayAge is how long a record must stay quiet before a decay run
// decrements it.
const decayAge = 30 * day

// AuditPublisher emits audit events for recorded incidents.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service gathers trust factors and maintains incident counters.
type Service struct {
	incidents  IncidentStore
	moderation ModerationSource
	platform   host.RoleAPI
	publisher  AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
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

func New(incidents IncidentStore, moderation ModerationSource, platform host.RoleAPI, opts ...Option) (*Service, error) {
	if incidents == nil {
		return nil, errors.New("incident store is required")
	}
	if moderation == nil {
		return nil, errors.New("moderation source is required")
	}
	if platform == nil {
		return nil, errors.New("platform API is required")
	}
	svc := &Service{
		incidents:  incidents,
		moderation: moderation,
		platform:   platform,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Score assembles factors for a member and returns their score and level.
// Collaborator failures degrade rather than fail: missing data contributes
// its zero value and the member is scored on what could be read. Account age
// comes from the timestamp embedded in the user ID, so a brand-new account
// is penalized even when every collaborator is down.
func (s *Service) Score(ctx context.Context, guildID id.GuildID, userID id.UserID) (int, id.TrustLevel, Factors, error) {
	factors := s.Gather(ctx, guildID, userID)
	score, level := CalculateScore(factors)
	return score, level, factors, nil
}

// Gather reads trust factors from the collaborators, logging and defaulting
// on failure.
func (s *Service) Gather(ctx context.Context, guildID id.GuildID, userID id.UserID) Factors {
	now := requestcontext.Now(ctx)
	f := Factors{}

	if created := userID.CreatedAt(); !created.IsZero() {
		f.AccountAge = now.Sub(created)
	}

	member, err := s.platform.Member(ctx, guildID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "member fetch failed, scoring without tenure",
			"guild_id", guildID, "user_id", userID, "error", err)
	} else {
		if !member.JoinedAt.IsZero() {
			f.MemberFor = now.Sub(member.JoinedAt)
		}
		f.RoleCount = len(member.RoleIDs)
	}

	warnings, strikes, verified, err := s.moderation.Moderation(ctx, guildID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "moderation lookup failed, scoring without history",
			"guild_id", guildID, "user_id", userID, "error", err)
	} else {
		f.Warnings = warnings
		f.Strikes = strikes
		f.IsVerified = verified
	}

	rec, err := s.incidents.Get(ctx, guildID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "incident lookup failed, scoring without incidents",
			"guild_id", guildID, "user_id", userID, "error", err)
	} else if rec != nil {
		f.SpamFlags = rec.SpamFlags
		f.RecentIncidents = rec.RecentIncidents
	}

	return f
}

// RecordIncident bumps the member's incident counter; spam-like types also
// bump the spam flag counter.
func (s *Service) RecordIncident(ctx context.Context, guildID id.GuildID, userID id.UserID, typ IncidentType) error {
	now := requestcontext.Now(ctx)
	rec, err := s.incidents.Increment(ctx, guildID, userID, typ.IsSpamLike(), now)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "record incident")
	}

	if s.metrics != nil {
		s.metrics.IncidentsRecorded.WithLabelValues(string(typ)).Inc()
	}
	s.logger.InfoContext(ctx, "incident recorded",
		"guild_id", guildID, "user_id", userID, "type", typ,
		"recent_incidents", rec.RecentIncidents, "spam_flags", rec.SpamFlags)
	if s.publisher != nil {
		if err := s.publisher.Emit(ctx, audit.Event{
			GuildID: guildID,
			UserID:  userID,
			Action:  audit.ActionIncidentRecorded,
			Detail:  string(typ),
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "error", err)
		}
	}
	return nil
}

// DecayOldIncidents decrements RecentIncidents by one for every record quiet
// for 30 days. Repeated runs are required for full decay.
func (s *Service) DecayOldIncidents(ctx context.Context) (int, error) {
	cutoff := requestcontext.Now(ctx).Add(-decayAge)
	touched, err := s.incidents.DecayOlderThan(ctx, cutoff)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "decay incidents")
	}
	if touched > 0 {
		s.logger.InfoContext(ctx, "incident decay run", "records", touched)
	}
	return touched, nil
}

// RunDecay runs the decay job on an interval until the context is canceled.
func (s *Service) RunDecay(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.DecayOldIncidents(ctx); err != nil {
				s.logger.ErrorContext(ctx, "incident decay failed", "error", err)
			}
		}
	}
}
