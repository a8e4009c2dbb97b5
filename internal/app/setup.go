package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tapline/touchbet/internal/circuitbreaker"
	"github.com/tapline/touchbet/internal/feed"
	"github.com/tapline/touchbet/internal/ledger"
	"github.com/tapline/touchbet/internal/pricing"
	"github.com/tapline/touchbet/internal/tokens"
	"github.com/tapline/touchbet/internal/venue"
	"github.com/tapline/touchbet/pkg/cache"
	"github.com/tapline/touchbet/pkg/config"
	"github.com/tapline/touchbet/pkg/healthprobe"
	"github.com/tapline/touchbet/pkg/httpserver"
	ws "github.com/tapline/touchbet/pkg/websocket"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := setupHealthChecker()

	// Setup cache
	metaCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	tokenRegistry := tokens.NewRegistry(metaCache)

	// Setup price feed
	aggregator, err := setupAggregator(cfg, logger, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup aggregator: %w", err)
	}

	// Setup bet ledger
	pricingParams := setupPricing(cfg)
	journal, err := setupJournal(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup journal: %w", err)
	}
	breaker, err := setupBreaker(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup risk breaker: %w", err)
	}
	betLedger := setupLedger(cfg, logger, pricingParams, aggregator, journal, breaker)

	// Setup HTTP server (needs feed, ledger and token registry)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, aggregator, betLedger, tokenRegistry, pricingParams)

	// Readiness tracks the feed: not ready while the canonical price is paused.
	healthChecker.RegisterCheck("feed", func() bool {
		_, ok := aggregator.GetLatestPrice()
		return ok
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		metaCache:     metaCache,
		tokenRegistry: tokenRegistry,
		aggregator:    aggregator,
		betLedger:     betLedger,
		journal:       journal,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHealthChecker() *healthprobe.HealthChecker {
	return healthprobe.New()
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupPricing(cfg *config.Config) pricing.Params {
	return pricing.Params{
		HouseEdge:     cfg.HouseEdge,
		MaxMultiplier: cfg.MaxMultiplier,
	}
}

func setupAggregator(cfg *config.Config, logger *zap.Logger, opts *Options) (*feed.Aggregator, error) {
	venues := cfg.Venues
	if len(opts.Venues) > 0 {
		venues = opts.Venues
	}

	return feed.New(feed.Config{
		Venues:         venues,
		StaleThreshold: cfg.StaleThreshold,
		OutlierBPS:     cfg.OutlierBPS,
		EWMALambda:     cfg.EWMALambda,
		FallbackSigma:  cfg.FallbackSigma,
		SigmaMin:       cfg.SigmaMin,
		SigmaMax:       cfg.SigmaMax,
		WarmupTicks:    cfg.WarmupTicks,
		RawTickWindow:  cfg.RawTickWindow,
		BarRetention:   cfg.BarRetention,
		QuoteBuffer:    cfg.QuoteBuffer,
		Connector: venue.Config{
			DialTimeout:  cfg.WSDialTimeout,
			PingInterval: cfg.WSPingInterval,
			PongTimeout:  cfg.WSPongTimeout,
			Backoff: ws.BackoffConfig{
				Initial:       cfg.WSReconnectInitialDelay,
				Max:           cfg.WSReconnectMaxDelay,
				Multiplier:    cfg.WSReconnectBackoffMult,
				JitterPercent: 0.2,
			},
			Logger: logger,
		},
		Logger: logger,
	})
}

func setupJournal(cfg *config.Config, logger *zap.Logger) (ledger.Journal, error) {
	if cfg.JournalMode == "postgres" {
		return ledger.NewPostgresJournal(&ledger.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}
	return ledger.NewConsoleJournal(logger), nil
}

func setupBreaker(cfg *config.Config, logger *zap.Logger) (ledger.RiskBreaker, error) {
	if cfg.RiskMaxExposure <= 0 {
		return nil, nil
	}
	return circuitbreaker.New(&circuitbreaker.Config{
		MaxOpenExposure: cfg.RiskMaxExposure,
		MaxDrawdown:     cfg.RiskMaxDrawdown,
		HysteresisRatio: cfg.RiskHysteresis,
		Logger:          logger,
	})
}

func setupLedger(
	cfg *config.Config,
	logger *zap.Logger,
	pricingParams pricing.Params,
	aggregator *feed.Aggregator,
	journal ledger.Journal,
	breaker ledger.RiskBreaker,
) *ledger.Ledger {
	return ledger.New(ledger.Config{
		Pricing:         pricingParams,
		BoxDuration:     cfg.BoxDuration,
		SettleTolerance: cfg.SettleTolerance,
		GraceWindow:     cfg.GraceWindow,
		Breaker:         breaker,
		Logger:          logger,
	}, aggregator, journal)
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	aggregator *feed.Aggregator,
	betLedger *ledger.Ledger,
	tokenRegistry *tokens.Registry,
	pricingParams pricing.Params,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Feed:          aggregator,
		Book:          betLedger,
		Tokens:        tokenRegistry,
		Quoter:        pricingParams,
	})
}
