package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tapline/touchbet/internal/feed"
	"github.com/tapline/touchbet/internal/ledger"
	"github.com/tapline/touchbet/internal/tokens"
	"github.com/tapline/touchbet/pkg/cache"
	"github.com/tapline/touchbet/pkg/config"
	"github.com/tapline/touchbet/pkg/healthprobe"
	"github.com/tapline/touchbet/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	metaCache     cache.Cache
	tokenRegistry *tokens.Registry
	aggregator    *feed.Aggregator
	betLedger     *ledger.Ledger
	journal       ledger.Journal
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	Venues []string // override configured venues, for debugging single-venue runs
}
