package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	// Shutdown components in dependency order
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new bets arrive mid-teardown
	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Close the ledger before the feed so the settlement sweep detaches
	// from the tick stream cleanly. The ledger owns the journal and closes it.
	err = a.betLedger.Close()
	if err != nil {
		a.logger.Error("ledger-close-error", zap.Error(err))
	}

	// Stop the price feed and its venue connectors
	a.aggregator.Stop()

	// Close the metadata cache
	a.metaCache.Close()

	// Wait for all goroutines
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
