package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/tapline/touchbet/internal/pricing"
)

//nolint:gochecknoglobals // Cobra boilerplate
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print an offline multiplier board",
	Long: `Computes a touch-multiplier board without connecting to any feed.

Given a current price, a per-second volatility and a box duration, prints
the target price and locked multiplier for each row above and below the
current price. Row spacing is chosen so the farthest row has roughly the
configured touch probability.`,
	RunE: runQuote,
}

var (
	quotePrice     float64
	quoteSigma     float64
	quoteSeconds   float64
	quoteRows      int
	quoteFarProb   float64
	quoteHouseEdge float64
	quoteMaxMult   float64
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Float64VarP(&quotePrice, "price", "p", 100000, "Current price")
	quoteCmd.Flags().Float64VarP(&quoteSigma, "sigma", "s", 0.0005, "Per-second volatility (fractional)")
	quoteCmd.Flags().Float64VarP(&quoteSeconds, "seconds", "t", 30, "Seconds until box expiry")
	quoteCmd.Flags().IntVarP(&quoteRows, "rows", "r", 4, "Rows per side")
	quoteCmd.Flags().Float64Var(&quoteFarProb, "far-prob", 0.10, "Touch probability targeted at the farthest row")
	quoteCmd.Flags().Float64Var(&quoteHouseEdge, "house-edge", pricing.DefaultHouseEdge, "House edge factor")
	quoteCmd.Flags().Float64Var(&quoteMaxMult, "max-mult", pricing.DefaultMaxMultiplier, "Multiplier cap")
}

func runQuote(cmd *cobra.Command, args []string) error {
	if quotePrice <= 0 || quoteSigma <= 0 || quoteSeconds <= 0 || quoteRows <= 0 {
		return fmt.Errorf("price, sigma, seconds and rows must all be positive")
	}

	params := pricing.Params{
		HouseEdge:     quoteHouseEdge,
		MaxMultiplier: quoteMaxMult,
	}

	rowPct := pricing.RowSizePct(quoteSigma, quoteSeconds, quoteFarProb, quoteRows)

	fmt.Printf("Multiplier board: price=%.2f sigma=%.6f box=%.0fs row=%.4f%%\n",
		quotePrice, quoteSigma, quoteSeconds, rowPct*100)
	fmt.Println("────────────────────────────────────────────────────────")
	fmt.Printf("%-6s %-14s %-12s %-10s\n", "ROW", "TARGET", "TOUCH-PROB", "MULT")

	// Rows above the price, farthest first
	for i := quoteRows; i >= 1; i-- {
		target := quotePrice * (1 + rowPct*float64(i))
		printRow(params, fmt.Sprintf("+%d", i), target, quotePrice)
	}

	fmt.Printf("%-6s %-14.2f %-12s %-10s\n", "0", quotePrice, "-", "-")

	// Rows below the price
	for i := 1; i <= quoteRows; i++ {
		target := quotePrice * (1 - rowPct*float64(i))
		printRow(params, fmt.Sprintf("-%d", i), target, quotePrice)
	}

	return nil
}

func printRow(params pricing.Params, label string, target, current float64) {
	distance := math.Abs(target-current) / current
	prob := pricing.TouchProb(distance, quoteSeconds, quoteSigma)
	mult := params.Multiplier(target, current, quoteSeconds, quoteSigma)
	fmt.Printf("%-6s %-14.2f %-12.4f %-10.2f\n", label, target, prob, mult)
}
