package feed

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tapline/touchbet/pkg/types"
)

func testConfig(venues ...string) Config {
	return Config{
		Venues:         venues,
		StaleThreshold: 2 * time.Second,
		OutlierBPS:     50,
		EWMALambda:     0.94,
		FallbackSigma:  0.0002,
		SigmaMin:       0.00005,
		SigmaMax:       0.01,
		WarmupTicks:    10,
		RawTickWindow:  10 * time.Second,
		BarRetention:   2 * time.Minute,
		QuoteBuffer:    16,
		Logger:         zap.NewNop(),
	}
}

func newTestAggregator(t *testing.T, venues ...string) *Aggregator {
	t.Helper()

	a, err := New(testConfig(venues...))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func quoteEvent(venue string, bid, ask float64, at time.Time) types.VenueEvent {
	return types.VenueEvent{
		Venue: venue,
		At:    at,
		Quote: &types.Quote{Bid: &bid, Ask: &ask},
	}
}

func tradeEvent(venue string, price float64, at time.Time) types.VenueEvent {
	return types.VenueEvent{
		Venue: venue,
		At:    at,
		Quote: &types.Quote{Trade: &price},
	}
}

func collectTicks(a *Aggregator) *[]types.Tick {
	ticks := &[]types.Tick{}
	a.Subscribe(func(tk types.Tick) {
		*ticks = append(*ticks, tk)
	})
	return ticks
}

func TestNew_UnknownVenue(t *testing.T) {
	_, err := New(testConfig("coinbase", "nasdaq"))
	if err == nil {
		t.Fatal("expected error for unknown venue")
	}
	if _, ok := err.(*UnknownVenueError); !ok {
		t.Errorf("error type = %T, want *UnknownVenueError", err)
	}
}

func TestEmit_FusesMidsAcrossVenues(t *testing.T) {
	a := newTestAggregator(t, "coinbase", "kraken")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.ingest(quoteEvent("kraken", 101, 103, now))
	a.emit(now)

	if len(*ticks) != 1 {
		t.Fatalf("len(ticks) = %d, want 1", len(*ticks))
	}

	tick := (*ticks)[0]
	if tick.Status != types.TickOK {
		t.Errorf("Status = %s, want OK", tick.Status)
	}
	// mean of mids 100 and 102
	if tick.Price != 101 {
		t.Errorf("Price = %v, want 101", tick.Price)
	}
	if tick.Quality != types.QualityMid {
		t.Errorf("Quality = %s, want MID", tick.Quality)
	}
	if tick.Source != "coinbase+kraken" {
		t.Errorf("Source = %q, want coinbase+kraken", tick.Source)
	}
}

func TestEmit_TradeOnlyFallsBackToLast(t *testing.T) {
	a := newTestAggregator(t, "binance")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	ev := tradeEvent("binance", 100.5, now)
	a.ingest(ev)
	a.emit(now)

	if len(*ticks) != 1 {
		t.Fatalf("len(ticks) = %d, want 1", len(*ticks))
	}
	tick := (*ticks)[0]
	if tick.Price != 100.5 {
		t.Errorf("Price = %v, want 100.5", tick.Price)
	}
	if tick.Quality != types.QualityLast {
		t.Errorf("Quality = %s, want LAST", tick.Quality)
	}
}

func TestEmit_AtMostOncePerSecond(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.emit(now)
	a.emit(now.Add(300 * time.Millisecond))
	a.emit(now.Add(900 * time.Millisecond))

	if len(*ticks) != 1 {
		t.Fatalf("len(ticks) = %d, want 1 for a single wall-clock second", len(*ticks))
	}

	a.emit(now.Add(time.Second))
	if len(*ticks) != 2 {
		t.Fatalf("len(ticks) = %d, want 2 after the second rolled over", len(*ticks))
	}
}

func TestEmit_OutlierVenueExcluded(t *testing.T) {
	a := newTestAggregator(t, "binance", "coinbase", "kraken")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("binance", 99.5, 100.5, now))
	a.ingest(quoteEvent("coinbase", 99.6, 100.4, now))
	// kraken is ~200bps above the others
	a.ingest(quoteEvent("kraken", 101.5, 102.5, now))
	a.emit(now)

	if len(*ticks) != 1 {
		t.Fatalf("len(ticks) = %d, want 1", len(*ticks))
	}
	tick := (*ticks)[0]

	// mean of binance mid 100 and coinbase mid 100, kraken excluded
	if tick.Price != 100 {
		t.Errorf("Price = %v, want 100 with the outlier excluded", tick.Price)
	}
	if tick.Status != types.TickDegraded {
		t.Errorf("Status = %s, want DEGRADED", tick.Status)
	}

	if got := a.venues["kraken"].status; got != types.VenueSuspect {
		t.Errorf("kraken status = %s, want SUSPECT", got)
	}
}

func TestEmit_SuspectVenueRejoins(t *testing.T) {
	a := newTestAggregator(t, "binance", "coinbase", "kraken")
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("binance", 99.5, 100.5, now))
	a.ingest(quoteEvent("coinbase", 99.6, 100.4, now))
	a.ingest(quoteEvent("kraken", 101.5, 102.5, now))
	a.emit(now)

	// kraken re-agrees with the pack on the next second
	later := now.Add(time.Second)
	a.ingest(quoteEvent("kraken", 99.7, 100.3, later))
	a.emit(later)

	if got := a.venues["kraken"].status; got != types.VenueConnected {
		t.Errorf("kraken status = %s, want CONNECTED after re-agreeing", got)
	}
	if got := a.GetStatus(); got != types.TickOK {
		t.Errorf("feed status = %s, want OK", got)
	}
}

func TestEmit_StaleVenueDemoted(t *testing.T) {
	a := newTestAggregator(t, "coinbase", "kraken")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.ingest(quoteEvent("kraken", 99, 101, now))
	a.emit(now)

	// kraken goes silent, coinbase keeps quoting
	later := now.Add(5 * time.Second)
	a.ingest(quoteEvent("coinbase", 99, 101, later))
	a.emit(later)

	if got := a.venues["kraken"].status; got != types.VenueStale {
		t.Errorf("kraken status = %s, want STALE", got)
	}

	last := (*ticks)[len(*ticks)-1]
	if last.Status != types.TickDegraded {
		t.Errorf("Status = %s, want DEGRADED with one venue stale", last.Status)
	}
}

func TestEmit_AllStalePauses(t *testing.T) {
	a := newTestAggregator(t, "coinbase", "kraken")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.ingest(quoteEvent("kraken", 101, 103, now))
	a.emit(now)

	priceBefore, ok := a.GetLatestPrice()
	if !ok {
		t.Fatal("expected a canonical price after first emission")
	}
	sigmaBefore := a.GetSigma1s()

	// Everyone goes silent.
	later := now.Add(10 * time.Second)
	a.emit(later)

	last := (*ticks)[len(*ticks)-1]
	if !last.Paused() {
		t.Fatalf("Status = %s, want PAUSED", last.Status)
	}
	if last.PauseReason != types.PauseAllFeedsStale {
		t.Errorf("PauseReason = %q, want %q", last.PauseReason, types.PauseAllFeedsStale)
	}

	// Paused ticks must preserve the last price and sigma untouched.
	if last.Price != priceBefore {
		t.Errorf("paused Price = %v, want preserved %v", last.Price, priceBefore)
	}
	if last.Sigma1s != sigmaBefore {
		t.Errorf("paused Sigma1s = %v, want preserved %v", last.Sigma1s, sigmaBefore)
	}
	if got := a.GetStatus(); got != types.TickPaused {
		t.Errorf("GetStatus() = %s, want PAUSED", got)
	}
}

func TestEmit_RecoveryAfterPause(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.emit(now)

	a.emit(now.Add(10 * time.Second)) // paused

	recovered := now.Add(20 * time.Second)
	a.ingest(quoteEvent("coinbase", 103, 105, recovered))
	a.emit(recovered)

	last := (*ticks)[len(*ticks)-1]
	if last.Status != types.TickOK {
		t.Errorf("Status = %s, want OK after recovery", last.Status)
	}
	if last.Price != 104 {
		t.Errorf("Price = %v, want 104", last.Price)
	}
}

func TestSigma_WarmupFallback(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	// Fewer returns than the warmup threshold: fallback sigma reported.
	for i := 0; i < 5; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		a.ingest(quoteEvent("coinbase", 99+float64(i)*0.01, 101+float64(i)*0.01, at))
		a.emit(at)
	}

	if got := a.GetSigma1s(); got != 0.0002 {
		t.Errorf("GetSigma1s() during warmup = %v, want fallback 0.0002", got)
	}

	// Push past warmup; sigma must come from the estimator, inside clamps.
	for i := 5; i < 20; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		a.ingest(quoteEvent("coinbase", 99+float64(i)*0.01, 101+float64(i)*0.01, at))
		a.emit(at)
	}

	got := a.GetSigma1s()
	if got == 0.0002 {
		t.Error("sigma still at fallback after warmup")
	}
	if got < 0.00005 || got > 0.01 {
		t.Errorf("sigma = %v outside clamp bounds", got)
	}
}

func TestSubscribe_PanicIsolation(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	a.Subscribe(func(types.Tick) { panic("bad listener") })
	received := 0
	a.Subscribe(func(types.Tick) { received++ })

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.emit(now)

	if received != 1 {
		t.Errorf("healthy subscriber received %d ticks, want 1", received)
	}
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	received := 0
	unsub := a.Subscribe(func(types.Tick) { received++ })

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	a.emit(now)
	unsub()
	a.emit(now.Add(time.Second))

	if received != 1 {
		t.Errorf("received %d ticks, want 1 after unsubscribe", received)
	}
}

func TestIngest_QuoteReestablishesConnected(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	a.ingest(types.VenueEvent{Venue: "coinbase", At: now, Status: types.VenueDisconnected})
	if got := a.venues["coinbase"].status; got != types.VenueDisconnected {
		t.Fatalf("status = %s, want DISCONNECTED", got)
	}

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	if got := a.venues["coinbase"].status; got != types.VenueConnected {
		t.Errorf("status = %s, want CONNECTED after a parsed quote", got)
	}
}

func TestIngest_UnknownVenueIgnored(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	// Must not panic or create state.
	a.ingest(quoteEvent("nasdaq", 99, 101, now))
	if _, ok := a.venues["nasdaq"]; ok {
		t.Error("unknown venue should not be tracked")
	}
}

func TestGetRecentBars(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	now := time.Unix(1700000000, 0)

	for i := 0; i < 4; i++ {
		at := now.Add(time.Duration(i) * time.Second)
		a.ingest(quoteEvent("coinbase", 99, 101, at))
		a.emit(at)
	}

	bars := a.GetRecentBars(2)
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}
	if bars[0].Second <= bars[1].Second {
		t.Error("bars not newest-first")
	}
}

func TestGetDiagnostics_OrderedByConfig(t *testing.T) {
	a := newTestAggregator(t, "kraken", "coinbase")
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))
	diags := a.GetDiagnostics()

	if len(diags) != 2 {
		t.Fatalf("len(diags) = %d, want 2", len(diags))
	}
	if diags[0].Name != "kraken" || diags[1].Name != "coinbase" {
		t.Errorf("diagnostics order = %s,%s, want config order kraken,coinbase", diags[0].Name, diags[1].Name)
	}
	if diags[1].Status != types.VenueConnected {
		t.Errorf("coinbase status = %s, want CONNECTED", diags[1].Status)
	}
}

func TestTick_HighLowCoverIntraSecondRange(t *testing.T) {
	a := newTestAggregator(t, "coinbase")
	ticks := collectTicks(a)
	now := time.Unix(1700000000, 0)

	a.ingest(quoteEvent("coinbase", 99, 101, now))                            // mid 100
	a.ingest(quoteEvent("coinbase", 103, 105, now.Add(300*time.Millisecond))) // mid 104
	a.ingest(quoteEvent("coinbase", 97, 99, now.Add(600*time.Millisecond)))   // mid 98
	a.emit(now.Add(900 * time.Millisecond))

	tick := (*ticks)[0]
	if tick.High1s != 104 || tick.Low1s != 98 {
		t.Errorf("High/Low = %v/%v, want 104/98", tick.High1s, tick.Low1s)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	a := newTestAggregator(t, "coinbase")

	// Stop before Start must be safe.
	a.Stop()

	b := newTestAggregator(t, "coinbase")
	b.Stop()
	b.Stop() // idempotent
}
