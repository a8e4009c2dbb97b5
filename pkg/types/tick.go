package types

import "time"

// TickStatus is the overall health of the fused price feed.
type TickStatus string

const (
	TickOK       TickStatus = "OK"
	TickDegraded TickStatus = "DEGRADED"
	TickPaused   TickStatus = "PAUSED"
)

// PriceQuality says how the canonical price was derived.
type PriceQuality string

const (
	QualityMid  PriceQuality = "MID"  // mean of mids from venues with both bid and ask
	QualityLast PriceQuality = "LAST" // mean of last trade prices (no two-sided venue survived)
)

// Pause reason codes.
const (
	PauseAllFeedsStale = "ALL_FEEDS_STALE"
)

// Tick is the aggregator's canonical per-second output. When Status is
// TickPaused only Timestamp, PauseReason and Venues are meaningful; the price
// and sigma fields carry their last known values and must not be acted on.
// A Tick is immutable once emitted.
type Tick struct {
	Timestamp   time.Time         `json:"timestamp"`
	Status      TickStatus        `json:"status"`
	Price       float64           `json:"price"`
	Source      string            `json:"source"`
	Quality     PriceQuality      `json:"quality"`
	High1s      float64           `json:"high_1s"`
	Low1s       float64           `json:"low_1s"`
	Sigma1s     float64           `json:"sigma_1s"`
	PauseReason string            `json:"pause_reason,omitempty"`
	Venues      []VenueDiagnostic `json:"venues"`
}

// Paused reports whether this tick carries no usable price.
func (t *Tick) Paused() bool {
	return t.Status == TickPaused
}

// SecondBar is one second of OHLC built from raw venue mids.
// Invariant: Low <= Open, Close <= High.
type SecondBar struct {
	Second    int64   `json:"second"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	TickCount int     `json:"tick_count"`
}
