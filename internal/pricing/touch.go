// Package pricing implements the barrier-touch probability model and the
// payout multiplier derived from it. Everything here is pure and stateless:
// the UI-facing preview and the settlement engine share these functions so
// quoted odds and settled odds can never drift apart.
package pricing

import "math"

// Default pricing policy.
const (
	DefaultHouseEdge     = 0.92
	DefaultMaxMultiplier = 100.0
	MinMultiplier        = 1.01

	minRowSizePct = 0.0001 // 0.01%
	maxRowSizePct = 0.05   // 5%
)

// Params is the operator-tunable pricing policy.
type Params struct {
	HouseEdge     float64 // fraction of fair-odds payout kept by the book
	MaxMultiplier float64
}

// DefaultParams returns the standard house policy.
func DefaultParams() Params {
	return Params{HouseEdge: DefaultHouseEdge, MaxMultiplier: DefaultMaxMultiplier}
}

// TouchProb is the first-passage probability that a driftless geometric
// Brownian motion with per-second log-volatility sigma touches a barrier at
// fractional distance distancePct within secondsLeft seconds:
//
//	2 * (1 - Phi(ln(1+|d|) / (sigma * sqrt(T))))
//
// Degenerate inputs have defined results: at or past the barrier the touch is
// certain; with no time or no volatility it is impossible.
func TouchProb(distancePct, secondsLeft, sigma float64) float64 {
	if distancePct <= 0 {
		return 1
	}
	if secondsLeft <= 0 || sigma <= 0 {
		return 0
	}

	b := math.Log(1 + math.Abs(distancePct))
	p := 2 * (1 - NormCdf(b/(sigma*math.Sqrt(secondsLeft))))

	return clamp(p, 0, 1)
}

// Multiplier prices a touch bet at the given target. The touch probability is
// floored at HouseEdge/MaxMultiplier to bound the payout, and the result is
// clamped to [1.01, MaxMultiplier] and rounded to two decimals. The expected
// house take converges to 1-HouseEdge of stake.
func (p Params) Multiplier(targetPrice, currentPrice, secondsLeft, sigma float64) float64 {
	if currentPrice <= 0 {
		return 0
	}

	dist := math.Abs(targetPrice-currentPrice) / currentPrice
	prob := TouchProb(dist, secondsLeft, sigma)

	floor := p.HouseEdge / p.MaxMultiplier
	if prob < floor {
		prob = floor
	}

	m := clamp(p.HouseEdge/prob, MinMultiplier, p.MaxMultiplier)

	return math.Round(m*100) / 100
}

// RowSizePct derives the price-grid row spacing so that the outermost of
// rowsPerSide rows has roughly farRowTargetProb chance of being touched within
// one box. Calm markets get tighter rows, volatile markets wider ones.
func RowSizePct(sigma, secondsPerBox, farRowTargetProb float64, rowsPerSide int) float64 {
	if rowsPerSide <= 0 {
		rowsPerSide = 1
	}
	if sigma <= 0 || secondsPerBox <= 0 || farRowTargetProb <= 0 || farRowTargetProb >= 1 {
		return minRowSizePct
	}

	z := NormInvCdf(1 - farRowTargetProb/2)
	b := z * sigma * math.Sqrt(secondsPerBox)
	rowSize := (math.Exp(b) - 1) / float64(rowsPerSide)

	return clamp(rowSize, minRowSizePct, maxRowSizePct)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
