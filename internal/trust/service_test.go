package trust

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"warden/internal/audit"
	"warden/internal/host"
	"warden/internal/host/hosttest"
	id "warden/pkg/domain"
	"warden/pkg/requestcontext"
)

type fakeModeration struct {
	warnings, strikes int
	verified          bool
	err               error
}

func (f *fakeModeration) Moderation(context.Context, id.GuildID, id.UserID) (int, int, bool, error) {
	return f.warnings, f.strikes, f.verified, f.err
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	platform   *hosttest.Fake
	moderation *fakeModeration
	incidents  *InMemoryIncidentStore
	auditStore *audit.InMemoryStore
	svc        *Service

	guildID id.GuildID
	userID  id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.platform = hosttest.New()
	s.moderation = &fakeModeration{}
	s.incidents = NewInMemoryIncidentStore()
	s.auditStore = audit.NewInMemoryStore()

	s.guildID = id.GuildID("10000000000000001")
	// Created 2015-01-30, so account age is about a decade at s.now.
	s.userID = id.UserID("175928847299117063")

	svc, err := New(s.incidents, s.moderation, s.platform,
		WithAuditPublisher(audit.NewPublisher(s.auditStore)))
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) seedMember(joined time.Time, roles ...id.RoleID) {
	s.platform.SeedMember(host.Member{
		UserID:   s.userID,
		GuildID:  s.guildID,
		RoleIDs:  roles,
		JoinedAt: joined,
	})
}

func (s *ServiceSuite) TestGather() {
	s.Run("assembles factors from all collaborators", func() {
		s.seedMember(s.now.Add(-40*day), "20000000000000001", "20000000000000002")
		s.moderation.warnings = 1
		s.moderation.strikes = 2
		s.moderation.verified = true
		_, err := s.incidents.Increment(s.ctx, s.guildID, s.userID, true, s.now.Add(-time.Hour))
		s.Require().NoError(err)

		f := s.svc.Gather(s.ctx, s.guildID, s.userID)
		s.Equal(40*day, f.MemberFor)
		s.Equal(2, f.RoleCount)
		s.Equal(1, f.Warnings)
		s.Equal(2, f.Strikes)
		s.True(f.IsVerified)
		s.Equal(1, f.SpamFlags)
		s.Equal(1, f.RecentIncidents)
		s.Greater(f.AccountAge, 365*day)
	})

	s.Run("member fetch failure degrades to zero tenure", func() {
		s.platform.FailFor["member"] = true
		f := s.svc.Gather(s.ctx, s.guildID, s.userID)
		s.Zero(f.MemberFor)
		s.Zero(f.RoleCount)
		// Account age still derived from the user ID itself.
		s.Greater(f.AccountAge, 365*day)
	})

	s.Run("moderation failure degrades to empty history", func() {
		s.platform.FailFor["member"] = false
		s.moderation.err = errors.New("db down")
		f := s.svc.Gather(s.ctx, s.guildID, s.userID)
		s.Zero(f.Warnings)
		s.Zero(f.Strikes)
		s.False(f.IsVerified)
	})
}

func (s *ServiceSuite) TestScoreScenario() {
	// A two-day-old account that just joined with nothing on record scores
	// 40 and lands in the low tier.
	young := id.UserID(snowflakeForTime(s.now.Add(-2 * day)))
	s.platform.SeedMember(host.Member{UserID: young, GuildID: s.guildID, JoinedAt: s.now})

	score, level, factors, err := s.svc.Score(s.ctx, s.guildID, young)
	s.Require().NoError(err)
	s.Equal(40, score)
	s.Equal(id.TrustLow, level)
	s.Equal(2*day, factors.AccountAge)
}

func (s *ServiceSuite) TestRecordIncident() {
	s.Run("spam-like incident bumps both counters", func() {
		s.Require().NoError(s.svc.RecordIncident(s.ctx, s.guildID, s.userID, IncidentMentionSpam))
		rec, err := s.incidents.Get(s.ctx, s.guildID, s.userID)
		s.Require().NoError(err)
		s.Equal(1, rec.RecentIncidents)
		s.Equal(1, rec.SpamFlags)
		s.Equal(s.now, rec.LastIncidentAt)
	})

	s.Run("non-spam incident bumps only the incident counter", func() {
		s.Require().NoError(s.svc.RecordIncident(s.ctx, s.guildID, s.userID, IncidentRaid))
		rec, err := s.incidents.Get(s.ctx, s.guildID, s.userID)
		s.Require().NoError(err)
		s.Equal(2, rec.RecentIncidents)
		s.Equal(1, rec.SpamFlags)
	})

	s.Run("incident is audited", func() {
		events, err := s.auditStore.ListByUser(s.ctx, s.guildID, s.userID)
		s.Require().NoError(err)
		s.Len(events, 2)
		s.Equal(audit.ActionIncidentRecorded, events[0].Action)
	})
}

func (s *ServiceSuite) TestDecayOldIncidents() {
	stale := id.UserID("30000000000000001")
	fresh := id.UserID("30000000000000002")
	_, err := s.incidents.Increment(s.ctx, s.guildID, stale, false, s.now.Add(-40*day))
	s.Require().NoError(err)
	_, err = s.incidents.Increment(s.ctx, s.guildID, stale, false, s.now.Add(-40*day))
	s.Require().NoError(err)
	_, err = s.incidents.Increment(s.ctx, s.guildID, fresh, false, s.now.Add(-time.Hour))
	s.Require().NoError(err)

	s.Run("quiet records decrement by exactly one", func() {
		touched, err := s.svc.DecayOldIncidents(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, touched)

		rec, err := s.incidents.Get(s.ctx, s.guildID, stale)
		s.Require().NoError(err)
		s.Equal(1, rec.RecentIncidents)

		rec, err = s.incidents.Get(s.ctx, s.guildID, fresh)
		s.Require().NoError(err)
		s.Equal(1, rec.RecentIncidents)
	})

	s.Run("full decay requires repeated runs", func() {
		touched, err := s.svc.DecayOldIncidents(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, touched)

		rec, err := s.incidents.Get(s.ctx, s.guildID, stale)
		s.Require().NoError(err)
		s.Equal(0, rec.RecentIncidents)

		touched, err = s.svc.DecayOldIncidents(s.ctx)
		s.Require().NoError(err)
		s.Equal(0, touched)
	})
}

// snowflakeForTime builds a user ID whose embedded timestamp is t.
func snowflakeForTime(t time.Time) string {
	ms := uint64(t.UnixMilli() - 1420070400000)
	return strconv.FormatUint(ms<<22, 10)
}
