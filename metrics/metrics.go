package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ClaimRequestsCounter counts claim attempts by their outcome
	ClaimRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_claim_requests_total",
			Help: "Number of reward claim requests by outcome.",
		},
		[]string{"outcome"},
	)
	// ClaimedAmountCounter sums the token amount paid out by successful claims
	ClaimedAmountCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_claimed_amount_total",
			Help: "Token amount paid out by successful claims.",
		},
	)
	// TransferDuration observes how long a chain transfer takes from signing to confirmation
	TransferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reward_chain_transfer_seconds",
			Help:    "Duration of admin wallet token transfers.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
		[]string{"result"},
	)
	// ReconciledClaimsCounter counts stuck claims resolved by the reconciler
	ReconciledClaimsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_claims_reconciled_total",
			Help: "Number of pending claims resolved by reconciliation.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		ClaimRequestsCounter,
		ClaimedAmountCounter,
		TransferDuration,
		ReconciledClaimsCounter,
	)
}
