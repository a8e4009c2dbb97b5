// Package circuitbreaker halts new bet placements when the book's risk
// position degrades: too much open stake at once, or realized losses past the
// configured drawdown. Settlement of already-open bets is never blocked.
package circuitbreaker

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ExposureBreaker tracks open exposure and realized PnL and trips when either
// crosses its limit. Re-enabling uses hysteresis so the breaker does not
// flap around the threshold.
type ExposureBreaker struct {
	enabled atomic.Bool // lock-free reads on the placement path

	maxOpenExposure float64
	maxDrawdown     float64
	hysteresisRatio float64
	logger          *zap.Logger

	mu           sync.RWMutex
	lastExposure float64
	lastPnL      float64
	lastObserved time.Time
}

// Config holds breaker limits. HysteresisRatio divides the trip thresholds to
// produce the re-enable thresholds; it must be >= 1.
type Config struct {
	MaxOpenExposure float64
	MaxDrawdown     float64
	HysteresisRatio float64
	Logger          *zap.Logger
}

// Status is a snapshot for diagnostics.
type Status struct {
	Enabled         bool
	LastExposure    float64
	LastPnL         float64
	LastObserved    time.Time
	MaxOpenExposure float64
	MaxDrawdown     float64
}

// New creates a breaker that starts enabled.
func New(cfg *Config) (*ExposureBreaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.MaxOpenExposure <= 0 {
		return nil, fmt.Errorf("max open exposure must be positive")
	}
	if cfg.MaxDrawdown <= 0 {
		return nil, fmt.Errorf("max drawdown must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}

	b := &ExposureBreaker{
		maxOpenExposure: cfg.MaxOpenExposure,
		maxDrawdown:     cfg.MaxDrawdown,
		hysteresisRatio: cfg.HysteresisRatio,
		logger:          cfg.Logger,
	}
	b.enabled.Store(true)

	BreakerEnabled.Set(1)
	BreakerExposureLimit.Set(cfg.MaxOpenExposure)
	BreakerDrawdownLimit.Set(cfg.MaxDrawdown)

	return b, nil
}

// IsEnabled reports whether new placements are allowed.
func (b *ExposureBreaker) IsEnabled() bool {
	return b.enabled.Load()
}

// Observe feeds the breaker the book's current open exposure and realized PnL
// and applies the state transition. The ledger calls this after every
// placement and settlement.
func (b *ExposureBreaker) Observe(openExposure, realizedPnL float64) {
	b.mu.Lock()
	b.lastExposure = openExposure
	b.lastPnL = realizedPnL
	b.lastObserved = time.Now()
	b.mu.Unlock()

	BreakerOpenExposure.Set(openExposure)
	BreakerRealizedPnL.Set(realizedPnL)

	exposureBreached := openExposure > b.maxOpenExposure
	drawdownBreached := realizedPnL < -b.maxDrawdown

	exposureRecovered := openExposure <= b.maxOpenExposure/b.hysteresisRatio
	drawdownRecovered := realizedPnL >= -b.maxDrawdown/b.hysteresisRatio

	currentlyEnabled := b.enabled.Load()

	if currentlyEnabled && (exposureBreached || drawdownBreached) {
		b.enabled.Store(false)
		BreakerEnabled.Set(0)
		BreakerStateChanges.Inc()

		b.logger.Warn("risk-breaker-tripped",
			zap.Float64("open-exposure", openExposure),
			zap.Float64("realized-pnl", realizedPnL),
			zap.Float64("max-exposure", b.maxOpenExposure),
			zap.Float64("max-drawdown", b.maxDrawdown))
		return
	}

	if !currentlyEnabled && exposureRecovered && drawdownRecovered {
		b.enabled.Store(true)
		BreakerEnabled.Set(1)
		BreakerStateChanges.Inc()

		b.logger.Info("risk-breaker-reset",
			zap.Float64("open-exposure", openExposure),
			zap.Float64("realized-pnl", realizedPnL))
	}
}

// GetStatus returns the breaker's current view of the book.
func (b *ExposureBreaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Enabled:         b.enabled.Load(),
		LastExposure:    b.lastExposure,
		LastPnL:         b.lastPnL,
		LastObserved:    b.lastObserved,
		MaxOpenExposure: b.maxOpenExposure,
		MaxDrawdown:     b.maxDrawdown,
	}
}
