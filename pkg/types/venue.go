package types

import "time"

// VenueStatus is the connection/data-quality state of a single price venue.
type VenueStatus string

const (
	VenueConnecting   VenueStatus = "CONNECTING"
	VenueConnected    VenueStatus = "CONNECTED"
	VenueStale        VenueStatus = "STALE"
	VenueDisconnected VenueStatus = "DISCONNECTED"
	VenueSuspect      VenueStatus = "SUSPECT"
)

// Quote is the normalized output of a venue adapter. Fields are nil when the
// venue message did not carry them (e.g. trade-only venues never set Bid/Ask).
type Quote struct {
	Bid   *float64
	Ask   *float64
	Trade *float64
}

// VenueEvent is what a connector delivers to the aggregator: either a parsed
// quote or a connection status transition (Quote nil).
type VenueEvent struct {
	Venue      string
	At         time.Time
	Quote      *Quote
	Status     VenueStatus // empty when the event is quote-only
	Reconnects int
}

// VenueDiagnostic is a read-only snapshot of one venue's state, attached to
// every canonical tick and served on the diagnostics endpoint.
type VenueDiagnostic struct {
	Name       string        `json:"name"`
	Status     VenueStatus   `json:"status"`
	LastMsgAge time.Duration `json:"last_msg_age_ms"`
	LastMid    *float64      `json:"last_mid"`
	LastTrade  *float64      `json:"last_trade"`
	Reconnects int           `json:"reconnects"`
}
