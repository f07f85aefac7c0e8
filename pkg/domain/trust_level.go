package domain

// TrustLevel buckets a 0-100 risk score into discrete tiers.
// Invariant: the mapping from score to level is monotonic.
type TrustLevel string

const (
	TrustUntrusted TrustLevel = "untrusted"
	TrustLow       TrustLevel = "low"
	TrustNormal    TrustLevel = "normal"
	TrustHigh      TrustLevel = "high"
)

// TrustLevelForScore maps a clamped score onto its level using the fixed
// 25/50/75 thresholds.
func TrustLevelForScore(score int) TrustLevel {
	switch {
	case score <= 25:
		return TrustUntrusted
	case score <= 50:
		return TrustLow
	case score <= 75:
		return TrustNormal
	default:
		return TrustHigh
	}
}
