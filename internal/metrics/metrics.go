package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credits_total",
			Help: "Number of balance credits applied, by kind",
		},
		[]string{"kind"},
	)

	CommissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_referral_commissions_total",
			Help: "Number of referral commissions paid",
		},
	)

	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_withdrawals_total",
			Help: "Withdrawal submissions by tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_withdrawal_transitions_total",
			Help: "Admin status transitions of withdrawal requests",
		},
		[]string{"status", "outcome"},
	)

	LedgerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_errors_total",
			Help: "Ledger operation failures by operation and error class",
		},
		[]string{"operation", "class"},
	)

	ReconcileFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reconcile_failures_total",
			Help: "Accounts whose balance did not match the journal",
		},
	)

	PendingWithdrawals = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_pending_withdrawals",
			Help: "Pending withdrawal requests at the last digest, by queue",
		},
		[]string{"queue"},
	)

	ActiveSessions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bot_active_sessions",
			Help: "Conversation sessions held in memory after the last prune, by flow",
		},
		[]string{"flow"},
	)
)
