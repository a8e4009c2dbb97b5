// Package ledger is the bet book and settlement engine. It accepts touch-bet
// placements, locks their payout odds at placement time, and resolves each
// bet exactly once against the same canonical price stream the UI renders.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapline/touchbet/internal/pricing"
	"github.com/tapline/touchbet/pkg/types"
	"go.uber.org/zap"
)

// PriceSource is the slice of the feed aggregator the ledger needs. The
// ledger only ever reads from it; the open-bet set is exclusively its own.
type PriceSource interface {
	GetLatestPrice() (float64, bool)
	GetSigma1s() float64
	GetStatus() types.TickStatus
	Subscribe(fn func(types.Tick)) func()
}

// RiskBreaker gates new placements on book-level risk. It observes the open
// stake total and realized PnL after every placement and settlement; when
// tripped, placements are rejected until it re-enables. Nil means no limits.
type RiskBreaker interface {
	IsEnabled() bool
	Observe(openExposure, realizedPnL float64)
}

// Config holds settlement policy.
type Config struct {
	Pricing         pricing.Params
	BoxDuration     time.Duration // default timeframe when placement omits one
	SettleTolerance time.Duration // symmetric slack at box boundaries
	GraceWindow     time.Duration // resolved bets stay visible this long
	Breaker         RiskBreaker
	Logger          *zap.Logger
}

// Ledger is the single writer of every bet's status transition.
type Ledger struct {
	cfg      Config
	logger   *zap.Logger
	source   PriceSource
	journal  Journal
	validate *validator.Validate

	mu          sync.Mutex
	bets        map[string]*types.Bet
	placed      []string // ids in placement order, for stable listings
	resolved    []types.Bet
	resolvedNet decimal.Decimal
	subs        map[int]func(BetUpdate)
	nextSubID   int

	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a ledger wired to the given price source and journal.
func New(cfg Config, source PriceSource, journal Journal) *Ledger {
	return &Ledger{
		cfg:      cfg,
		logger:   cfg.Logger,
		source:   source,
		journal:  journal,
		validate: validator.New(),
		bets:     make(map[string]*types.Bet),
		subs:     make(map[int]func(BetUpdate)),
	}
}

// Start subscribes the settlement sweep to the canonical tick stream.
func (l *Ledger) Start() {
	l.unsubscribe = l.source.Subscribe(l.onTick)
	l.logger.Info("ledger-started",
		zap.Duration("box-duration", l.cfg.BoxDuration),
		zap.Float64("house-edge", l.cfg.Pricing.HouseEdge))
}

// Close detaches from the tick stream and closes the journal. Idempotent.
func (l *Ledger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.unsubscribe != nil {
			l.unsubscribe()
		}
		err = l.journal.Close()
		l.logger.Info("ledger-closed")
	})
	return err
}

// PlaceBet validates, prices and books a bet. The multiplier is computed from
// the price and sigma at this instant and never changes afterwards. All
// rejections are synchronous typed errors.
func (l *Ledger) PlaceBet(params PlaceBetParams) (*types.Bet, error) {
	if err := l.validate.Struct(params); err != nil {
		BetsRejectedTotal.WithLabelValues(types.RejectInvalidParams).Inc()
		return nil, types.NewBetRejection(types.RejectInvalidParams, "%v", err)
	}
	if params.Stake.LessThanOrEqual(decimal.Zero) {
		BetsRejectedTotal.WithLabelValues(types.RejectBadStake).Inc()
		return nil, types.NewBetRejection(types.RejectBadStake, "stake must be positive, got %s", params.Stake)
	}
	if params.SecondsLeft <= 0 {
		BetsRejectedTotal.WithLabelValues(types.RejectExpiredBox).Inc()
		return nil, types.NewBetRejection(types.RejectExpiredBox, "box already expired")
	}
	if l.cfg.Breaker != nil && !l.cfg.Breaker.IsEnabled() {
		BetsRejectedTotal.WithLabelValues(types.RejectRiskHalted).Inc()
		return nil, types.NewBetRejection(types.RejectRiskHalted, "risk limits reached, placements halted")
	}
	if l.source.GetStatus() == types.TickPaused {
		BetsRejectedTotal.WithLabelValues(types.RejectFeedPaused).Inc()
		return nil, types.NewBetRejection(types.RejectFeedPaused, "price feed is paused")
	}

	price, ok := l.source.GetLatestPrice()
	if !ok {
		BetsRejectedTotal.WithLabelValues(types.RejectNoPrice).Inc()
		return nil, types.NewBetRejection(types.RejectNoPrice, "no canonical price yet")
	}

	// A target at or through the current price is a certain touch: nothing
	// to offer odds on.
	if (params.Direction == types.Long && params.TargetPrice <= price) ||
		(params.Direction == types.Short && params.TargetPrice >= price) {
		BetsRejectedTotal.WithLabelValues(types.RejectNoEdge).Inc()
		return nil, types.NewBetRejection(types.RejectNoEdge,
			"target %.8f already touched at price %.8f", params.TargetPrice, price)
	}

	sigma := l.source.GetSigma1s()
	multiplier := l.cfg.Pricing.Multiplier(params.TargetPrice, price, params.SecondsLeft, sigma)
	if multiplier <= 1 {
		BetsRejectedTotal.WithLabelValues(types.RejectNoEdge).Inc()
		return nil, types.NewBetRejection(types.RejectNoEdge, "multiplier %.2f offers no edge", multiplier)
	}

	timeframe := params.Timeframe
	if timeframe <= 0 {
		timeframe = l.cfg.BoxDuration
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(params.SecondsLeft * float64(time.Second)))

	bet := &types.Bet{
		ID:               uuid.New().String(),
		PlacedAt:         now,
		Timeframe:        timeframe,
		StartsAt:         expiresAt.Add(-timeframe),
		ExpiresAt:        expiresAt,
		Direction:        params.Direction,
		TargetPrice:      params.TargetPrice,
		PriceAtPlacement: price,
		SigmaAtPlacement: sigma,
		Multiplier:       multiplier,
		Stake:            params.Stake,
		Status:           types.BetOpen,
	}

	l.mu.Lock()
	l.bets[bet.ID] = bet
	l.placed = append(l.placed, bet.ID)
	open := l.openCountLocked()
	exposure := l.openExposureLocked()
	pnl, _ := l.resolvedNet.Float64()
	l.mu.Unlock()

	BetsPlacedTotal.WithLabelValues(string(params.Direction)).Inc()
	OpenBets.Set(float64(open))
	if l.cfg.Breaker != nil {
		l.cfg.Breaker.Observe(exposure, pnl)
	}

	l.journal.RecordPlaced(*bet)
	l.logger.Info("bet-placed",
		zap.String("bet-id", bet.ID),
		zap.String("direction", string(bet.Direction)),
		zap.Float64("target", bet.TargetPrice),
		zap.Float64("multiplier", bet.Multiplier),
		zap.String("stake", bet.Stake.String()))

	l.notify(BetUpdate{Bet: *bet, Net: decimal.Zero})

	betCopy := *bet
	return &betCopy, nil
}

// SubscribeToBetUpdates registers a lifecycle listener and returns its
// unsubscribe function.
func (l *Ledger) SubscribeToBetUpdates(fn func(BetUpdate)) func() {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Bets returns a snapshot of the live set (open plus recently resolved),
// in placement order.
func (l *Ledger) Bets() []types.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.Bet, 0, len(l.bets))
	for _, id := range l.placed {
		if b, ok := l.bets[id]; ok {
			out = append(out, *b)
		}
	}
	return out
}

// OpenBets returns only the bets still awaiting settlement.
func (l *Ledger) OpenBets() []types.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.Bet, 0, len(l.bets))
	for _, id := range l.placed {
		if b, ok := l.bets[id]; ok && b.Status == types.BetOpen {
			out = append(out, *b)
		}
	}
	return out
}

// TotalPnL is the running sum of resolved bets' net payouts.
func (l *Ledger) TotalPnL() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolvedNet
}

// RecomputePnL folds the resolved-bet log from scratch. It must always equal
// TotalPnL; the divergence check belongs in tests and audits.
func (l *Ledger) RecomputePnL() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for i := range l.resolved {
		total = total.Add(l.resolved[i].Net())
	}
	return total
}

// ResolvedLog returns the append-only log of settled bets, oldest first.
func (l *Ledger) ResolvedLog() []types.Bet {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.Bet, len(l.resolved))
	copy(out, l.resolved)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ResolvedAt.Before(*out[j].ResolvedAt)
	})
	return out
}

// onTick is the settlement sweep, invoked on every canonical tick.
func (l *Ledger) onTick(t types.Tick) {
	if t.Paused() {
		// No price, nothing observable: a touch during an outage cannot be
		// adjudicated, and a timeout without evidence would be premature.
		return
	}
	l.settle(t, t.Timestamp)
}

// settle evaluates every open bet against one tick and purges resolved bets
// past their grace window. Terminal transitions happen exactly once: status
// is checked and flipped under the same lock, so overlapping ticks can never
// double-settle a bet.
func (l *Ledger) settle(t types.Tick, now time.Time) {
	var updates []BetUpdate

	l.mu.Lock()
	for _, id := range l.placed {
		bet, ok := l.bets[id]
		if !ok || bet.Status != types.BetOpen {
			continue
		}

		active := !now.Before(bet.StartsAt.Add(-l.cfg.SettleTolerance)) &&
			!now.After(bet.ExpiresAt.Add(l.cfg.SettleTolerance))

		if active && l.touched(bet, t) {
			updates = append(updates, l.resolveLocked(bet, types.BetWon, now))
			continue
		}

		if now.After(bet.ExpiresAt.Add(l.cfg.SettleTolerance)) {
			updates = append(updates, l.resolveLocked(bet, types.BetLost, now))
		}
	}

	l.purgeLocked(now)
	open := l.openCountLocked()
	exposure := l.openExposureLocked()
	pnl, _ := l.resolvedNet.Float64()
	l.mu.Unlock()

	OpenBets.Set(float64(open))
	if l.cfg.Breaker != nil && len(updates) > 0 {
		l.cfg.Breaker.Observe(exposure, pnl)
	}

	for _, u := range updates {
		l.journal.RecordResolved(u.Bet)
		l.notify(u)
	}
}

// touched checks the win condition against the tick's intra-second range so a
// barrier crossed between two canonical samples still counts.
func (l *Ledger) touched(bet *types.Bet, t types.Tick) bool {
	switch bet.Direction {
	case types.Long:
		return t.High1s >= bet.TargetPrice
	case types.Short:
		return t.Low1s <= bet.TargetPrice
	default:
		return false
	}
}

// resolveLocked performs the single terminal transition and books the PnL.
func (l *Ledger) resolveLocked(bet *types.Bet, status types.BetStatus, now time.Time) BetUpdate {
	resolvedAt := now
	bet.Status = status
	bet.ResolvedAt = &resolvedAt

	net := bet.Net()
	l.resolvedNet = l.resolvedNet.Add(net)
	l.resolved = append(l.resolved, *bet)

	BetsResolvedTotal.WithLabelValues(string(status)).Inc()
	pnl, _ := l.resolvedNet.Float64()
	RealizedPnL.Set(pnl)

	l.logger.Info("bet-resolved",
		zap.String("bet-id", bet.ID),
		zap.String("status", string(status)),
		zap.String("net", net.String()))

	return BetUpdate{Bet: *bet, Net: net}
}

// purgeLocked drops resolved bets whose display grace window has elapsed.
// Purging never touches already-booked PnL.
func (l *Ledger) purgeLocked(now time.Time) {
	kept := l.placed[:0]
	for _, id := range l.placed {
		bet, ok := l.bets[id]
		if !ok {
			continue
		}
		if bet.Resolved() && now.Sub(*bet.ResolvedAt) > l.cfg.GraceWindow {
			delete(l.bets, id)
			continue
		}
		kept = append(kept, id)
	}
	l.placed = kept
}

// openExposureLocked sums the stakes of bets still awaiting settlement.
func (l *Ledger) openExposureLocked() float64 {
	total := decimal.Zero
	for _, b := range l.bets {
		if b.Status == types.BetOpen {
			total = total.Add(b.Stake)
		}
	}
	out, _ := total.Float64()
	return out
}

func (l *Ledger) openCountLocked() int {
	n := 0
	for _, b := range l.bets {
		if b.Status == types.BetOpen {
			n++
		}
	}
	return n
}

// notify fans a lifecycle update out to subscribers, isolating panics.
func (l *Ledger) notify(update BetUpdate) {
	l.mu.Lock()
	subs := make([]func(BetUpdate), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("bet-subscriber-panic", zap.Any("panic", r))
				}
			}()
			fn(update)
		}()
	}
}
