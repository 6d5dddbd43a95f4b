package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wager metrics
	WagersCreated    prometheus.Counter
	JoinsTotal       prometheus.Counter
	ResolutionsTotal prometheus.Counter
	SettlementsTotal prometheus.Counter
	RefundsTotal     prometheus.Counter
	SettledPool      prometheus.Histogram

	// Ledger metrics
	LedgerAdjustments *prometheus.CounterVec

	// Withdrawal metrics
	WithdrawalsRequested prometheus.Counter
	WithdrawalsCompleted prometheus.Counter
	WithdrawalsFailed    prometheus.Counter

	// Sweep metrics
	SweepRuns     prometheus.Counter
	SweepDuration prometheus.Histogram

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Wager metrics
		WagersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_wagers_created_total",
			Help: "Total number of wagers created",
		}),
		JoinsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_joins_total",
			Help: "Total number of wager entries accepted",
		}),
		ResolutionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_resolutions_total",
			Help: "Total number of wagers resolved",
		}),
		SettlementsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_settlements_total",
			Help: "Total number of wagers settled",
		}),
		RefundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_refunds_total",
			Help: "Total number of wagers refunded",
		}),
		SettledPool: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wagerd_settled_pool",
			Help:    "Pool sizes of settled wagers",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000, 100000000},
		}),

		// Ledger metrics
		LedgerAdjustments: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerd_ledger_adjustments_total",
				Help: "Total balance adjustments by transaction type",
			},
			[]string{"type"},
		),

		// Withdrawal metrics
		WithdrawalsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_withdrawals_requested_total",
			Help: "Total number of withdrawals requested",
		}),
		WithdrawalsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_withdrawals_completed_total",
			Help: "Total number of withdrawals completed",
		}),
		WithdrawalsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_withdrawals_failed_total",
			Help: "Total number of withdrawals failed and refunded",
		}),

		// Sweep metrics
		SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wagerd_sweep_runs_total",
			Help: "Total number of sweep invocations",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wagerd_sweep_duration_seconds",
			Help:    "Duration of sweep invocations",
			Buckets: prometheus.DefBuckets,
		}),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerd_cache_hits_total",
				Help: "Total cache hits by key prefix",
			},
			[]string{"prefix"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerd_cache_misses_total",
				Help: "Total cache misses by key prefix",
			},
			[]string{"prefix"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wagerd_rate_limit_hits_total",
				Help: "Total rate limited requests by endpoint",
			},
			[]string{"endpoint"},
		),
	}
}
