package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tapline/touchbet/pkg/types"
)

// PlaceBetParams is the placement request. Stake is money and stays decimal
// end to end; prices and times are floats like everywhere else in the model.
type PlaceBetParams struct {
	Direction   types.Direction `json:"direction" validate:"required,oneof=LONG SHORT"`
	TargetPrice float64         `json:"target_price" validate:"required,gt=0"`
	SecondsLeft float64         `json:"seconds_left" validate:"required,gt=0"`
	Stake       decimal.Decimal `json:"stake"`
	Timeframe   time.Duration   `json:"timeframe,omitempty"` // box duration; zero means the configured default
}

// BetUpdate is one lifecycle transition delivered to bet subscribers.
type BetUpdate struct {
	Bet types.Bet       `json:"bet"`
	Net decimal.Decimal `json:"net"` // realized payout, zero while open
}
