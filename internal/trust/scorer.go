package trust

import (
	"time"

	id "warden/pkg/domain"
)

const day = 24 * time.Hour

// CalculateScore is a pure function from factors to a 0-100 score and its
// trust level. Higher is more trusted. The shape is: start at a neutral 50,
// add capped positive signals (age, tenure, verification, roles), subtract
// tiered penalties (warnings, strikes, spam flags, incidents), clamp.
func CalculateScore(f Factors) (int, id.TrustLevel) {
	score := 50

	score += accountAgeContribution(f.AccountAge)
	score += tenureContribution(f.MemberFor)
	if f.IsVerified {
		score += 10
	}
	// The outer cap is unreachable under the inner one; kept as-is rather
	// than guessing which cap was intended.
	score += min(10, min(5, f.RoleCount/2))

	score -= warningsPenalty(f.Warnings)
	score -= strikesPenalty(f.Strikes)
	score -= spamFlagsPenalty(f.SpamFlags)
	score -= incidentsPenalty(f.RecentIncidents)

	score = max(0, min(100, score))
	return score, id.TrustLevelForScore(score)
}

// RiskFromScore inverts a trust score into the risk score the challenge
// ladder consumes: the least trusted members carry the most risk.
func RiskFromScore(score int) int {
	return 100 - score
}

func accountAgeContribution(age time.Duration) int {
	switch {
	case age < day:
		return -15
	case age < 7*day:
		return -10
	case age < 30*day:
		return 0
	case age < 90*day:
		return 5
	case age < 180*day:
		return 8
	case age < 365*day:
		return 12
	default:
		return 15
	}
}

func tenureContribution(tenure time.Duration) int {
	switch {
	case tenure < day:
		return 0
	case tenure < 7*day:
		return 2
	case tenure < 30*day:
		return 5
	case tenure < 90*day:
		return 8
	case tenure < 180*day:
		return 11
	case tenure < 365*day:
		return 13
	default:
		return 15
	}
}

func warningsPenalty(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 10
	case n == 2:
		return 20
	default:
		return 30
	}
}

func strikesPenalty(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 15
	case n == 2:
		return 30
	default:
		return 40
	}
}

func spamFlagsPenalty(n int) int {
	switch {
	case n <= 0:
		return 0
	case n <= 2:
		return 5
	case n <= 5:
		return 10
	case n <= 10:
		return 15
	default:
		return 20
	}
}

func incidentsPenalty(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 8
	case n == 2:
		return 15
	case n == 3:
		return 20
	default:
		return 25
	}
}
