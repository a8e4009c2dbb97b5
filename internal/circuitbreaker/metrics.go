package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerEnabled indicates whether new placements are allowed.
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_risk_breaker_enabled",
		Help: "Whether the risk breaker allows new bet placements (1=enabled, 0=tripped)",
	})

	// BreakerOpenExposure is the last observed open stake total.
	BreakerOpenExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_risk_breaker_open_exposure",
		Help: "Last observed sum of open bet stakes",
	})

	// BreakerRealizedPnL is the last observed realized PnL.
	BreakerRealizedPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_risk_breaker_realized_pnl",
		Help: "Last observed aggregate realized PnL",
	})

	// BreakerExposureLimit is the configured open-exposure trip threshold.
	BreakerExposureLimit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_risk_breaker_exposure_limit",
		Help: "Open exposure above which placements are halted",
	})

	// BreakerDrawdownLimit is the configured drawdown trip threshold.
	BreakerDrawdownLimit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_risk_breaker_drawdown_limit",
		Help: "Realized loss beyond which placements are halted",
	})

	// BreakerStateChanges counts trip and reset transitions.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_risk_breaker_state_changes_total",
		Help: "Risk breaker transitions between enabled and tripped",
	})
)
