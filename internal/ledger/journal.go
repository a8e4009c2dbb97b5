package ledger

import (
	"fmt"

	"github.com/tapline/touchbet/pkg/types"
	"go.uber.org/zap"
)

// Journal is the audit sink for bet lifecycle events. The resolved-bet log it
// receives is sufficient to recompute aggregate PnL from scratch.
type Journal interface {
	RecordPlaced(bet types.Bet)
	RecordResolved(bet types.Bet)
	Close() error
}

// ConsoleJournal pretty-prints settlements and logs placements.
type ConsoleJournal struct {
	logger *zap.Logger
}

// NewConsoleJournal creates a console journal.
func NewConsoleJournal(logger *zap.Logger) *ConsoleJournal {
	logger.Info("console-journal-initialized")
	return &ConsoleJournal{logger: logger}
}

// RecordPlaced logs a placement.
func (c *ConsoleJournal) RecordPlaced(bet types.Bet) {
	c.logger.Info("journal-bet-placed",
		zap.String("bet-id", bet.ID),
		zap.String("direction", string(bet.Direction)),
		zap.Float64("target", bet.TargetPrice),
		zap.Float64("multiplier", bet.Multiplier),
		zap.String("stake", bet.Stake.String()),
		zap.Time("expires-at", bet.ExpiresAt))
}

// RecordResolved pretty-prints a settlement to console.
func (c *ConsoleJournal) RecordResolved(bet types.Bet) {
	outcome := "❌ LOST"
	if bet.Status == types.BetWon {
		outcome = "✅ WON"
	}

	fmt.Println("\n────────────────────────────────────────────────────────")
	fmt.Printf("🎲 BET SETTLED: %s\n", outcome)
	fmt.Println("────────────────────────────────────────────────────────")
	fmt.Printf("ID:         %s\n", bet.ID[:8])
	fmt.Printf("Direction:  %s @ %.8f (placed at %.8f)\n", bet.Direction, bet.TargetPrice, bet.PriceAtPlacement)
	fmt.Printf("Multiplier: %.2fx locked\n", bet.Multiplier)
	fmt.Printf("Stake:      %s\n", bet.Stake)
	fmt.Printf("Net:        %s\n", bet.Net())
	fmt.Println("────────────────────────────────────────────────────────")
}

// Close is a no-op for console output.
func (c *ConsoleJournal) Close() error {
	c.logger.Info("closing-console-journal")
	return nil
}
