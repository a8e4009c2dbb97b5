package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of a touch bet relative to the current price.
type Direction string

const (
	Long  Direction = "LONG"  // wins when price touches the target from below
	Short Direction = "SHORT" // wins when price touches the target from above
)

// BetStatus is the settlement state machine: OPEN -> WON | LOST, exactly once.
type BetStatus string

const (
	BetOpen BetStatus = "OPEN"
	BetWon  BetStatus = "WON"
	BetLost BetStatus = "LOST"
)

// Bet is a single touch bet. Everything except Status/ResolvedAt is fixed at
// placement; the settlement engine is the only writer of the transition.
type Bet struct {
	ID               string          `json:"id"`
	PlacedAt         time.Time       `json:"placed_at"`
	Timeframe        time.Duration   `json:"timeframe"`
	StartsAt         time.Time       `json:"starts_at"`
	ExpiresAt        time.Time       `json:"expires_at"`
	Direction        Direction       `json:"direction"`
	TargetPrice      float64         `json:"target_price"`
	PriceAtPlacement float64         `json:"price_at_placement"`
	SigmaAtPlacement float64         `json:"sigma_at_placement"`
	Multiplier       float64         `json:"multiplier"` // locked at placement, never recomputed
	Stake            decimal.Decimal `json:"stake"`
	Status           BetStatus       `json:"status"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

// Resolved reports whether the bet has reached a terminal state.
func (b *Bet) Resolved() bool {
	return b.Status == BetWon || b.Status == BetLost
}

// Net returns the realized payout: stake*multiplier - stake on a win,
// -stake on a loss, zero while open.
func (b *Bet) Net() decimal.Decimal {
	switch b.Status {
	case BetWon:
		return b.Stake.Mul(decimal.NewFromFloat(b.Multiplier)).Sub(b.Stake)
	case BetLost:
		return b.Stake.Neg()
	default:
		return decimal.Zero
	}
}
