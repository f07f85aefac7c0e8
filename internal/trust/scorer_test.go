package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "warden/pkg/domain"
)

func TestCalculateScore(t *testing.T) {
	cases := []struct {
		name      string
		factors   Factors
		wantScore int
		wantLevel id.TrustLevel
	}{
		{
			name:      "two day old account with no history",
			factors:   Factors{AccountAge: 2 * day},
			wantScore: 40, // 50 - 10 (age < 7d)
			wantLevel: id.TrustLow,
		},
		{
			name:      "brand new account",
			factors:   Factors{},
			wantScore: 35, // 50 - 15 (age < 1d)
			wantLevel: id.TrustLow,
		},
		{
			name: "established verified member",
			factors: Factors{
				AccountAge: 400 * day,
				MemberFor:  200 * day,
				IsVerified: true,
				RoleCount:  6,
			},
			wantScore: 91, // 50 + 15 + 13 + 10 + 3
			wantLevel: id.TrustHigh,
		},
		{
			name: "role bonus is capped at five",
			factors: Factors{
				AccountAge: 400 * day,
				RoleCount:  40,
			},
			wantScore: 70, // 50 + 15 + 5 (roles capped)
			wantLevel: id.TrustNormal,
		},
		{
			name: "heavy penalties clamp at zero",
			factors: Factors{
				Warnings:        5,
				Strikes:         5,
				SpamFlags:       20,
				RecentIncidents: 10,
			},
			wantScore: 0, // 50 - 15 - 30 - 40 - 20 - 25 clamped
			wantLevel: id.TrustUntrusted,
		},
		{
			name: "single warning and incident",
			factors: Factors{
				AccountAge:      100 * day,
				MemberFor:       40 * day,
				Warnings:        1,
				RecentIncidents: 1,
			},
			wantScore: 48, // 50 + 8 + 8 - 10 - 8
			wantLevel: id.TrustLow,
		},
		{
			name: "spam flag tiers",
			factors: Factors{
				AccountAge: 400 * day,
				MemberFor:  400 * day,
				SpamFlags:  7,
			},
			wantScore: 65, // 50 + 15 + 15 - 15
			wantLevel: id.TrustNormal,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, level := CalculateScore(tc.factors)
			assert.Equal(t, tc.wantScore, score)
			assert.Equal(t, tc.wantLevel, level)
		})
	}
}

func TestCalculateScoreBounds(t *testing.T) {
	// Whatever the inputs, the score stays inside [0,100] and the level
	// tracks the thresholds monotonically.
	extremes := []Factors{
		{},
		{AccountAge: 10000 * day, MemberFor: 10000 * day, IsVerified: true, RoleCount: 1000},
		{Warnings: 1000, Strikes: 1000, SpamFlags: 1000, RecentIncidents: 1000},
		{AccountAge: -time.Hour, MemberFor: -time.Hour, RoleCount: -5},
	}
	for _, f := range extremes {
		score, level := CalculateScore(f)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		assert.Equal(t, id.TrustLevelForScore(score), level)
	}
}

func TestRiskFromScore(t *testing.T) {
	assert.Equal(t, 100, RiskFromScore(0))
	assert.Equal(t, 60, RiskFromScore(40))
	assert.Equal(t, 0, RiskFromScore(100))
}

func TestIncidentTypeIsSpamLike(t *testing.T) {
	assert.True(t, IncidentSpam.IsSpamLike())
	assert.True(t, IncidentMentionSpam.IsSpamLike())
	assert.True(t, IncidentLinkSpam.IsSpamLike())
	assert.True(t, IncidentInviteSpam.IsSpamLike())
	assert.False(t, IncidentRaid.IsSpamLike())
	assert.False(t, IncidentHarassment.IsSpamLike())
	assert.False(t, IncidentOther.IsSpamLike())
}
