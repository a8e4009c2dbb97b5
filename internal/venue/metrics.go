package venue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks per-venue connection state (0 or 1).
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "touchbet_venue_active_connections",
			Help: "Whether the venue connection is currently up",
		},
		[]string{"venue"},
	)

	// MessagesReceivedTotal counts raw frames read per venue.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_venue_messages_received_total",
			Help: "Total raw WebSocket frames received per venue",
		},
		[]string{"venue"},
	)

	// MessagesIgnoredTotal counts control/heartbeat/unparseable frames.
	MessagesIgnoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_venue_messages_ignored_total",
			Help: "Frames that did not parse into a quote (control messages, heartbeats, malformed)",
		},
		[]string{"venue"},
	)

	// QuotesDroppedTotal counts quotes dropped because the sink was full.
	QuotesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_venue_quotes_dropped_total",
			Help: "Parsed quotes dropped due to aggregator backpressure",
		},
		[]string{"venue"},
	)

	// ReconnectsTotal counts completed reconnect cycles per venue.
	ReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "touchbet_venue_reconnects_total",
			Help: "Total venue reconnect cycles",
		},
		[]string{"venue"},
	)
)
