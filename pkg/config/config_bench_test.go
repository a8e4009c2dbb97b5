package config

import (
	"os"
	"testing"
	"time"
)

// BenchmarkConfig_Validate benchmarks configuration validation
func BenchmarkConfig_Validate(b *testing.B) {
	cfg := &Config{
		HTTPPort:         "8080",
		Venues:           []string{"coinbase", "kraken"},
		StaleThreshold:   2 * time.Second,
		EWMALambda:       0.94,
		SigmaMin:         0.00005,
		SigmaMax:         0.01,
		HouseEdge:        0.92,
		MaxMultiplier:    100.0,
		FarRowTargetProb: 0.10,
		RowsPerSide:      4,
		BoxDuration:      30 * time.Second,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

// BenchmarkConfig_LoadFromEnv benchmarks environment variable loading
func BenchmarkConfig_LoadFromEnv(b *testing.B) {
	// Set test environment variables
	os.Setenv("FEED_VENUES", "binance,coinbase,kraken")
	os.Setenv("FEED_OUTLIER_BPS", "50")
	os.Setenv("PRICING_HOUSE_EDGE", "0.92")
	defer func() {
		os.Unsetenv("FEED_VENUES")
		os.Unsetenv("FEED_OUTLIER_BPS")
		os.Unsetenv("PRICING_HOUSE_EDGE")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadFromEnv()
	}
}
