package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "touchbet",
	Short: "Real-time touch betting engine",
	Long: `Touchbet aggregates live prices from multiple exchange WebSocket feeds
into a de-noised 1Hz canonical price, estimates short-horizon volatility,
and runs a barrier-touch betting book on top of it.

Multipliers are derived from the probability that the canonical price
touches a target level before the betting box expires; bets settle
exactly once against per-second high/low bars.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
