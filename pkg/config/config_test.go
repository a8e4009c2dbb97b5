package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel info, got %q", cfg.LogLevel)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("expected HTTPPort 8080, got %q", cfg.HTTPPort)
	}
	if len(cfg.Venues) != 2 || cfg.Venues[0] != "coinbase" || cfg.Venues[1] != "kraken" {
		t.Errorf("expected default venues [coinbase kraken], got %v", cfg.Venues)
	}
	if cfg.StaleThreshold != 2*time.Second {
		t.Errorf("expected StaleThreshold 2s, got %v", cfg.StaleThreshold)
	}
	if cfg.EWMALambda != 0.94 {
		t.Errorf("expected EWMALambda 0.94, got %f", cfg.EWMALambda)
	}
	if cfg.HouseEdge != 0.92 {
		t.Errorf("expected HouseEdge 0.92, got %f", cfg.HouseEdge)
	}
	if cfg.BoxDuration != 30*time.Second {
		t.Errorf("expected BoxDuration 30s, got %v", cfg.BoxDuration)
	}
	if cfg.JournalMode != "console" {
		t.Errorf("expected JournalMode console, got %q", cfg.JournalMode)
	}
	if cfg.RiskMaxExposure != 10000 || cfg.RiskHysteresis != 2.0 {
		t.Errorf("unexpected risk defaults: exposure=%f hysteresis=%f",
			cfg.RiskMaxExposure, cfg.RiskHysteresis)
	}
}

func TestLoadFromEnv_VenueList(t *testing.T) {
	t.Run("comma_separated", func(t *testing.T) {
		os.Setenv("FEED_VENUES", "binance,coinbase,kraken")
		t.Cleanup(func() {
			os.Unsetenv("FEED_VENUES")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(cfg.Venues) != 3 {
			t.Fatalf("expected 3 venues, got %v", cfg.Venues)
		}
	})

	t.Run("whitespace_trimmed", func(t *testing.T) {
		os.Setenv("FEED_VENUES", " binance , kraken ")
		t.Cleanup(func() {
			os.Unsetenv("FEED_VENUES")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if cfg.Venues[0] != "binance" || cfg.Venues[1] != "kraken" {
			t.Errorf("expected trimmed venues, got %v", cfg.Venues)
		}
	})

	t.Run("only_commas_falls_back_to_default", func(t *testing.T) {
		os.Setenv("FEED_VENUES", ",,")
		t.Cleanup(func() {
			os.Unsetenv("FEED_VENUES")
		})

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(cfg.Venues) != 2 {
			t.Errorf("expected default venues, got %v", cfg.Venues)
		}
	})
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	os.Setenv("FEED_STALE_THRESHOLD", "5s")
	os.Setenv("FEED_OUTLIER_BPS", "25")
	os.Setenv("SETTLE_BOX_DURATION", "10s")
	t.Cleanup(func() {
		os.Unsetenv("FEED_STALE_THRESHOLD")
		os.Unsetenv("FEED_OUTLIER_BPS")
		os.Unsetenv("SETTLE_BOX_DURATION")
	})

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.StaleThreshold != 5*time.Second {
		t.Errorf("expected StaleThreshold 5s, got %v", cfg.StaleThreshold)
	}
	if cfg.OutlierBPS != 25 {
		t.Errorf("expected OutlierBPS 25, got %f", cfg.OutlierBPS)
	}
	if cfg.BoxDuration != 10*time.Second {
		t.Errorf("expected BoxDuration 10s, got %v", cfg.BoxDuration)
	}
}

func TestLoadFromEnv_MalformedValuesFallBack(t *testing.T) {
	os.Setenv("FEED_WARMUP_TICKS", "not-a-number")
	os.Setenv("FEED_EWMA_LAMBDA", "abc")
	os.Setenv("WS_DIAL_TIMEOUT", "soon")
	t.Cleanup(func() {
		os.Unsetenv("FEED_WARMUP_TICKS")
		os.Unsetenv("FEED_EWMA_LAMBDA")
		os.Unsetenv("WS_DIAL_TIMEOUT")
	})

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.WarmupTicks != 10 {
		t.Errorf("expected default WarmupTicks 10, got %d", cfg.WarmupTicks)
	}
	if cfg.EWMALambda != 0.94 {
		t.Errorf("expected default EWMALambda 0.94, got %f", cfg.EWMALambda)
	}
	if cfg.WSDialTimeout != 10*time.Second {
		t.Errorf("expected default WSDialTimeout 10s, got %v", cfg.WSDialTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("load defaults: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults_valid", func(c *Config) {}, false},
		{"empty_port", func(c *Config) { c.HTTPPort = "" }, true},
		{"no_venues", func(c *Config) { c.Venues = nil }, true},
		{"zero_stale_threshold", func(c *Config) { c.StaleThreshold = 0 }, true},
		{"lambda_too_high", func(c *Config) { c.EWMALambda = 1.0 }, true},
		{"lambda_negative", func(c *Config) { c.EWMALambda = -0.5 }, true},
		{"sigma_bounds_inverted", func(c *Config) { c.SigmaMin = 0.01; c.SigmaMax = 0.001 }, true},
		{"house_edge_above_one", func(c *Config) { c.HouseEdge = 1.5 }, true},
		{"max_multiplier_too_low", func(c *Config) { c.MaxMultiplier = 1.0 }, true},
		{"far_row_prob_out_of_range", func(c *Config) { c.FarRowTargetProb = 1.0 }, true},
		{"zero_rows", func(c *Config) { c.RowsPerSide = 0 }, true},
		{"zero_box_duration", func(c *Config) { c.BoxDuration = 0 }, true},
		{"bad_journal_mode", func(c *Config) { c.JournalMode = "redis" }, true},
		{"risk_hysteresis_below_one", func(c *Config) { c.RiskHysteresis = 0.5 }, true},
		{"risk_disabled_skips_risk_checks", func(c *Config) { c.RiskMaxExposure = 0; c.RiskMaxDrawdown = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
