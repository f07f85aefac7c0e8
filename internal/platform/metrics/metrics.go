// Package metrics registers the Prometheus instruments for the security core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the security core.
type Metrics struct {
	InteractionsDenied  *prometheus.CounterVec
	RateLimitHits       *prometheus.CounterVec
	ChallengesIssued    *prometheus.CounterVec
	ChallengesCompleted *prometheus.CounterVec
	ChallengesFailed    *prometheus.CounterVec
	IncidentsRecorded   *prometheus.CounterVec
	LockdownsApplied    prometheus.Counter
	MembersQuarantined  prometheus.Counter
	StateStoreEvictions *prometheus.CounterVec
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InteractionsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_interactions_denied_total",
			Help: "Interactions rejected by the security gateway, by reason",
		}, []string{"reason"}),
		RateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_rate_limit_hits_total",
			Help: "Rate limit denials by category",
		}, []string{"category"}),
		ChallengesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_challenges_issued_total",
			Help: "Verification challenges issued, by type",
		}, []string{"type"}),
		ChallengesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_challenges_completed_total",
			Help: "Verification challenges completed successfully, by type",
		}, []string{"type"}),
		ChallengesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_challenges_failed_total",
			Help: "Verification challenges failed or expired, by type",
		}, []string{"type"}),
		IncidentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_incidents_recorded_total",
			Help: "Security incidents recorded against members, by type",
		}, []string{"type"}),
		LockdownsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_lockdowns_applied_total",
			Help: "Guild lockdowns applied",
		}),
		MembersQuarantined: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_members_quarantined_total",
			Help: "Members quarantined",
		}),
		StateStoreEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_statestore_evictions_total",
			Help: "Bounded state store evictions, by store purpose",
		}, []string{"store"}),
	}
}
