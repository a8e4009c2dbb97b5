package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksEmittedTotal counts canonical ticks by status.
	TicksEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_feed_ticks_emitted_total",
			Help: "Canonical ticks emitted, labeled by feed status",
		},
		[]string{"status"},
	)

	// PausedTicksTotal counts total-outage seconds.
	PausedTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_feed_paused_ticks_total",
		Help: "Seconds in which no venue was usable",
	})

	// StaleTransitionsTotal counts CONNECTED -> STALE demotions per venue.
	StaleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_feed_stale_transitions_total",
			Help: "Venue staleness demotions",
		},
		[]string{"venue"},
	)

	// OutliersRejectedTotal counts per-round outlier exclusions per venue.
	OutliersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_feed_outliers_rejected_total",
			Help: "Venue quotes excluded from fusion for deviating from the median",
		},
		[]string{"venue"},
	)

	// CanonicalPrice is the latest fused price.
	CanonicalPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_feed_canonical_price",
		Help: "Latest canonical price",
	})

	// Sigma1s is the latest reported per-second volatility.
	Sigma1s = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_feed_sigma_1s",
		Help: "Latest per-second EWMA volatility estimate",
	})
)
