package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tapline/touchbet/internal/app"
	"github.com/tapline/touchbet/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the touch betting engine",
	Long: `Starts the touch betting engine, which will:
1. Connect to the configured exchange WebSocket feeds
2. Fuse venue quotes into a 1Hz canonical price with EWMA volatility
3. Serve the betting API and multiplier quotes over HTTP
4. Settle open bets against per-second high/low bars

Use --venues to override the configured venue list for debugging.`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("venues", "v", nil, "Override configured venues (e.g. coinbase,kraken)")
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Load .env if present; real env vars win
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create logger
	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	venues, _ := cmd.Flags().GetStringSlice("venues")

	// Create app with options
	opts := &app.Options{
		Venues: venues,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
