package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlacedTotal counts accepted placements by direction.
	BetsPlacedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_ledger_bets_placed_total",
			Help: "Accepted bet placements",
		},
		[]string{"direction"},
	)

	// BetsRejectedTotal counts rejected placements by reason code.
	BetsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_ledger_bets_rejected_total",
			Help: "Rejected bet placements",
		},
		[]string{"reason"},
	)

	// BetsResolvedTotal counts settlements by outcome.
	BetsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_ledger_bets_resolved_total",
			Help: "Settled bets by terminal status",
		},
		[]string{"status"},
	)

	// OpenBets is the current number of unresolved bets.
	OpenBets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_ledger_open_bets",
		Help: "Bets currently awaiting settlement",
	})

	// RealizedPnL is the running sum of resolved bets' net payouts.
	RealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_ledger_realized_pnl",
		Help: "Aggregate realized PnL across resolved bets",
	})

	// JournalErrorsTotal counts failed journal writes.
	JournalErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_ledger_journal_errors_total",
		Help: "Bet journal writes that failed",
	})
)
