// Package feed fuses per-venue quote streams into one canonical 1Hz price
// with a live volatility estimate. It owns all venue state: staleness
// marking, outlier exclusion, OHLC bars, and the EWMA variance update all
// happen on a single goroutine, so no mutation ever races a tick emission.
package feed

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tapline/touchbet/internal/venue"
	"github.com/tapline/touchbet/pkg/types"
	"go.uber.org/zap"
)

// Config holds aggregator configuration. Thresholds are policy knobs, not
// derived values; operators retune them per market.
type Config struct {
	Venues         []string
	StaleThreshold time.Duration // CONNECTED -> STALE after this much silence
	OutlierBPS     float64       // deviation from the venue median that marks SUSPECT
	EWMALambda     float64
	FallbackSigma  float64 // reported until the estimator has warmed up
	SigmaMin       float64
	SigmaMax       float64
	WarmupTicks    int
	RawTickWindow  time.Duration
	BarRetention   time.Duration
	QuoteBuffer    int
	Connector      venue.Config // template: Adapter and Sink are filled per venue
	Logger         *zap.Logger
}

// venueState is the aggregator-owned view of one venue. Only the aggregator
// goroutine touches it.
type venueState struct {
	name       string
	status     types.VenueStatus
	lastMsgAt  time.Time
	lastBid    *float64
	lastAsk    *float64
	lastTrade  *float64
	lastMid    *float64
	reconnects int
}

// Subscriber receives canonical ticks. A panicking subscriber is isolated and
// never blocks delivery to the others.
type Subscriber func(types.Tick)

// Aggregator fuses the venue connectors into a canonical tick stream.
type Aggregator struct {
	cfg      Config
	logger   *zap.Logger
	adapters map[string]venue.Adapter

	mu          sync.RWMutex
	venues      map[string]*venueState
	bars        *barSet
	lastPrice   float64
	variance    float64
	sigma       float64
	warmupTicks int
	lastEmitted int64 // epoch second of the last emission
	subs        map[int]Subscriber
	nextSubID   int

	events     chan types.VenueEvent
	connectors []*venue.Connector
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once
	started    bool
}

// New creates an aggregator for the configured venues. Unknown venue names
// are rejected here rather than failing silently at connect time.
func New(cfg Config) (*Aggregator, error) {
	adapters := venue.Registry()
	for _, name := range cfg.Venues {
		if _, ok := adapters[name]; !ok {
			return nil, &UnknownVenueError{Name: name}
		}
	}

	a := &Aggregator{
		cfg:      cfg,
		logger:   cfg.Logger,
		adapters: adapters,
		venues:   make(map[string]*venueState, len(cfg.Venues)),
		bars:     newBarSet(cfg.RawTickWindow, cfg.BarRetention),
		variance: cfg.FallbackSigma * cfg.FallbackSigma,
		sigma:    cfg.FallbackSigma,
		subs:     make(map[int]Subscriber),
		events:   make(chan types.VenueEvent, cfg.QuoteBuffer),
	}

	for _, name := range cfg.Venues {
		a.venues[name] = &venueState{name: name, status: types.VenueDisconnected}
	}

	return a, nil
}

// UnknownVenueError is returned when a configured venue has no adapter.
type UnknownVenueError struct{ Name string }

func (e *UnknownVenueError) Error() string { return "unknown venue: " + e.Name }

// Start launches one connector per venue and the 1Hz emission loop.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.logger.Info("feed-aggregator-starting", zap.Strings("venues", a.cfg.Venues))

	for _, name := range a.cfg.Venues {
		connCfg := a.cfg.Connector
		connCfg.Adapter = a.adapters[name]
		connCfg.Sink = a.events
		connCfg.Logger = a.logger

		c := venue.New(connCfg)
		a.connectors = append(a.connectors, c)
		c.Start(runCtx)
	}

	a.wg.Add(1)
	go a.loop(runCtx)

	return nil
}

// Stop closes all connections, stops the scheduler and waits for the loop to
// drain. Idempotent; no tick is delivered after Stop returns.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		a.logger.Info("feed-aggregator-stopping")

		if a.cancel != nil {
			a.cancel()
		}
		for _, c := range a.connectors {
			c.Close()
		}
		a.wg.Wait()

		a.logger.Info("feed-aggregator-stopped")
	})
}

// Subscribe registers a canonical-tick listener and returns its unsubscribe
// function.
func (a *Aggregator) Subscribe(fn func(types.Tick)) func() {
	a.mu.Lock()
	id := a.nextSubID
	a.nextSubID++
	a.subs[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// GetLatestPrice returns the last canonical price, false before first fusion.
func (a *Aggregator) GetLatestPrice() (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastPrice, a.lastPrice > 0
}

// GetSigma1s returns the current per-second volatility estimate, falling back
// to the configured default until the estimator has converged.
func (a *Aggregator) GetSigma1s() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reportedSigma()
}

// GetStatus derives the overall feed health from the current valid set.
func (a *Aggregator) GetStatus() types.TickStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	valid := 0
	for _, v := range a.venues {
		if v.status == types.VenueConnected && v.lastMid != nil {
			valid++
		}
	}

	switch {
	case valid == 0:
		return types.TickPaused
	case valid < len(a.cfg.Venues):
		return types.TickDegraded
	default:
		return types.TickOK
	}
}

// GetDiagnostics returns a consistent snapshot of all venue states.
func (a *Aggregator) GetDiagnostics() []types.VenueDiagnostic {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.diagnosticsLocked(time.Now())
}

// GetSecondBar returns the OHLC bar for an epoch second, if retained.
func (a *Aggregator) GetSecondBar(second int64) (types.SecondBar, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bars.bar(second)
}

// GetRecentBars returns up to count second bars, newest first.
func (a *Aggregator) GetRecentBars(count int) []types.SecondBar {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bars.recent(count)
}

// loop is the aggregator's single writer: it consumes venue events and fires
// the per-second emission.
func (a *Aggregator) loop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			a.ingest(ev)
		case <-ticker.C:
			a.emit(time.Now())
		}
	}
}

// ingest applies one venue event to that venue's state. Freshness is judged
// by the event's own timestamp so replay in tests stays deterministic.
func (a *Aggregator) ingest(ev types.VenueEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.venues[ev.Venue]
	if !ok {
		return
	}

	v.reconnects = ev.Reconnects

	if ev.Quote == nil {
		if ev.Status != "" {
			v.status = ev.Status
		}
		return
	}

	// A parsed quote always re-establishes the venue as live; this is how a
	// STALE or SUSPECT venue earns its way back into the fusion set.
	v.lastMsgAt = ev.At
	v.status = types.VenueConnected

	if ev.Quote.Bid != nil {
		v.lastBid = ev.Quote.Bid
	}
	if ev.Quote.Ask != nil {
		v.lastAsk = ev.Quote.Ask
	}
	if ev.Quote.Trade != nil {
		v.lastTrade = ev.Quote.Trade
	}

	if v.lastBid != nil && v.lastAsk != nil {
		mid := (*v.lastBid + *v.lastAsk) / 2
		v.lastMid = &mid
	} else if ev.Quote.Trade != nil {
		v.lastMid = ev.Quote.Trade
	}

	if v.lastMid != nil {
		a.bars.add(ev.At, *v.lastMid, v.name)
	}
}

// emit runs the per-second pipeline: staleness sweep, outlier rejection,
// fusion, volatility update, broadcast. At most one tick per wall-clock
// second regardless of scheduler jitter.
func (a *Aggregator) emit(now time.Time) {
	a.mu.Lock()

	second := now.Unix()
	if second == a.lastEmitted {
		a.mu.Unlock()
		return
	}
	a.lastEmitted = second

	a.sweepStaleLocked(now)

	valid := a.validVenuesLocked()
	surviving := a.rejectOutliersLocked(valid)
	diags := a.diagnosticsLocked(now)

	price, source, quality, ok := fuse(surviving)
	if !ok {
		// Total outage: emit PAUSED, preserve lastPrice and sigma untouched.
		tick := types.Tick{
			Timestamp:   now,
			Status:      types.TickPaused,
			Price:       a.lastPrice,
			Sigma1s:     a.reportedSigma(),
			PauseReason: types.PauseAllFeedsStale,
			Venues:      diags,
		}
		subs := a.subscribersLocked()
		a.mu.Unlock()

		PausedTicksTotal.Inc()
		a.broadcast(subs, tick)
		return
	}

	a.updateVolatilityLocked(price)
	a.lastPrice = price

	high, low := a.bars.currentRange(now, price)

	status := types.TickOK
	if len(surviving) < len(a.cfg.Venues) {
		status = types.TickDegraded
	}

	tick := types.Tick{
		Timestamp: now,
		Status:    status,
		Price:     price,
		Source:    source,
		Quality:   quality,
		High1s:    high,
		Low1s:     low,
		Sigma1s:   a.reportedSigma(),
		Venues:    diags,
	}
	subs := a.subscribersLocked()
	a.mu.Unlock()

	TicksEmittedTotal.WithLabelValues(string(status)).Inc()
	CanonicalPrice.Set(price)
	Sigma1s.Set(tick.Sigma1s)

	a.broadcast(subs, tick)
}

// sweepStaleLocked demotes silent CONNECTED venues to STALE.
func (a *Aggregator) sweepStaleLocked(now time.Time) {
	for _, v := range a.venues {
		if v.status != types.VenueConnected {
			continue
		}
		if !v.lastMsgAt.IsZero() && now.Sub(v.lastMsgAt) > a.cfg.StaleThreshold {
			a.logger.Warn("venue-stale",
				zap.String("venue", v.name),
				zap.Duration("silence", now.Sub(v.lastMsgAt)))
			v.status = types.VenueStale
			StaleTransitionsTotal.WithLabelValues(v.name).Inc()
		}
	}
}

func (a *Aggregator) validVenuesLocked() []*venueState {
	valid := make([]*venueState, 0, len(a.venues))
	for _, v := range a.venues {
		if v.status == types.VenueConnected && v.lastMid != nil {
			valid = append(valid, v)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].name < valid[j].name })
	return valid
}

// rejectOutliersLocked drops venues whose mid deviates too far from the
// median of the valid set. Needs at least two venues for a meaningful median.
// A SUSPECT venue stays connected and rejoins as soon as it re-agrees.
func (a *Aggregator) rejectOutliersLocked(valid []*venueState) []*venueState {
	if len(valid) < 2 {
		return valid
	}

	mids := make([]float64, len(valid))
	for i, v := range valid {
		mids[i] = *v.lastMid
	}
	sort.Float64s(mids)
	median := mids[len(mids)/2]

	surviving := valid[:0:0]
	for _, v := range valid {
		bps := math.Abs(*v.lastMid-median) / median * 10000
		if bps > a.cfg.OutlierBPS {
			a.logger.Warn("venue-suspect",
				zap.String("venue", v.name),
				zap.Float64("mid", *v.lastMid),
				zap.Float64("median", median),
				zap.Float64("deviation-bps", bps))
			v.status = types.VenueSuspect
			OutliersRejectedTotal.WithLabelValues(v.name).Inc()
			continue
		}
		surviving = append(surviving, v)
	}
	return surviving
}

// fuse computes the canonical price from the surviving venues: mean of mids
// from two-sided venues when any exist, else mean of last trades.
func fuse(surviving []*venueState) (price float64, source string, quality types.PriceQuality, ok bool) {
	var midSum float64
	var midNames []string
	var tradeSum float64
	var tradeNames []string

	for _, v := range surviving {
		if v.lastBid != nil && v.lastAsk != nil && v.lastMid != nil {
			midSum += *v.lastMid
			midNames = append(midNames, v.name)
		}
		if v.lastTrade != nil {
			tradeSum += *v.lastTrade
			tradeNames = append(tradeNames, v.name)
		}
	}

	if len(midNames) > 0 {
		return midSum / float64(len(midNames)), strings.Join(midNames, "+"), types.QualityMid, true
	}
	if len(tradeNames) > 0 {
		return tradeSum / float64(len(tradeNames)), strings.Join(tradeNames, "+"), types.QualityLast, true
	}
	return 0, "", "", false
}

// updateVolatilityLocked folds one log-return into the EWMA variance.
func (a *Aggregator) updateVolatilityLocked(newPrice float64) {
	if a.lastPrice <= 0 || newPrice <= 0 {
		return
	}

	r := math.Log(newPrice / a.lastPrice)
	a.variance = a.cfg.EWMALambda*a.variance + (1-a.cfg.EWMALambda)*r*r

	sigma := math.Sqrt(a.variance)
	if sigma < a.cfg.SigmaMin {
		sigma = a.cfg.SigmaMin
	}
	if sigma > a.cfg.SigmaMax {
		sigma = a.cfg.SigmaMax
	}
	a.sigma = sigma
	a.warmupTicks++
}

// reportedSigma hides the estimator until it has seen enough returns.
func (a *Aggregator) reportedSigma() float64 {
	if a.warmupTicks < a.cfg.WarmupTicks {
		return a.cfg.FallbackSigma
	}
	return a.sigma
}

func (a *Aggregator) diagnosticsLocked(now time.Time) []types.VenueDiagnostic {
	diags := make([]types.VenueDiagnostic, 0, len(a.venues))
	for _, name := range a.cfg.Venues {
		v := a.venues[name]
		age := time.Duration(math.MaxInt64)
		if !v.lastMsgAt.IsZero() {
			age = now.Sub(v.lastMsgAt)
		}
		diags = append(diags, types.VenueDiagnostic{
			Name:       v.name,
			Status:     v.status,
			LastMsgAge: age,
			LastMid:    v.lastMid,
			LastTrade:  v.lastTrade,
			Reconnects: v.reconnects,
		})
	}
	return diags
}

func (a *Aggregator) subscribersLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	return subs
}

// broadcast delivers the tick to every subscriber, isolating panics so one
// bad listener cannot starve the rest or the scheduler.
func (a *Aggregator) broadcast(subs []Subscriber, tick types.Tick) {
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("subscriber-panic", zap.Any("panic", r))
				}
			}()
			fn(tick)
		}()
	}
}
