package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Price feed
	Venues         []string
	StaleThreshold time.Duration
	OutlierBPS     float64
	EWMALambda     float64
	FallbackSigma  float64
	SigmaMin       float64
	SigmaMax       float64
	WarmupTicks    int
	RawTickWindow  time.Duration
	BarRetention   time.Duration
	QuoteBuffer    int

	// WebSocket
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64

	// Pricing
	HouseEdge        float64
	MaxMultiplier    float64
	FarRowTargetProb float64
	RowsPerSide      int

	// Settlement
	BoxDuration     time.Duration
	SettleTolerance time.Duration
	GraceWindow     time.Duration

	// Risk limits (RiskMaxExposure == 0 disables the breaker)
	RiskMaxExposure float64
	RiskMaxDrawdown float64
	RiskHysteresis  float64

	// Journal
	JournalMode  string // console | postgres
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Price feed defaults
		Venues:         getListOrDefault("FEED_VENUES", []string{"coinbase", "kraken"}),
		StaleThreshold: getDurationOrDefault("FEED_STALE_THRESHOLD", 2*time.Second),
		OutlierBPS:     getFloat64OrDefault("FEED_OUTLIER_BPS", 50.0),
		EWMALambda:     getFloat64OrDefault("FEED_EWMA_LAMBDA", 0.94),
		FallbackSigma:  getFloat64OrDefault("FEED_FALLBACK_SIGMA", 0.0002),
		SigmaMin:       getFloat64OrDefault("FEED_SIGMA_MIN", 0.00005),
		SigmaMax:       getFloat64OrDefault("FEED_SIGMA_MAX", 0.01),
		WarmupTicks:    getIntOrDefault("FEED_WARMUP_TICKS", 10),
		RawTickWindow:  getDurationOrDefault("FEED_RAW_TICK_WINDOW", 10*time.Second),
		BarRetention:   getDurationOrDefault("FEED_BAR_RETENTION", 2*time.Minute),
		QuoteBuffer:    getIntOrDefault("FEED_QUOTE_BUFFER", 1000),

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),

		// Pricing defaults
		HouseEdge:        getFloat64OrDefault("PRICING_HOUSE_EDGE", 0.92),
		MaxMultiplier:    getFloat64OrDefault("PRICING_MAX_MULTIPLIER", 100.0),
		FarRowTargetProb: getFloat64OrDefault("PRICING_FAR_ROW_TARGET_PROB", 0.10),
		RowsPerSide:      getIntOrDefault("PRICING_ROWS_PER_SIDE", 4),

		// Settlement defaults
		BoxDuration:     getDurationOrDefault("SETTLE_BOX_DURATION", 30*time.Second),
		SettleTolerance: getDurationOrDefault("SETTLE_TOLERANCE", 500*time.Millisecond),
		GraceWindow:     getDurationOrDefault("SETTLE_GRACE_WINDOW", 5*time.Minute),

		// Risk defaults
		RiskMaxExposure: getFloat64OrDefault("RISK_MAX_OPEN_EXPOSURE", 10000.0),
		RiskMaxDrawdown: getFloat64OrDefault("RISK_MAX_DRAWDOWN", 5000.0),
		RiskHysteresis:  getFloat64OrDefault("RISK_HYSTERESIS_RATIO", 2.0),

		// Journal defaults
		JournalMode:  getEnvOrDefault("JOURNAL_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "touchbet"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", ""),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "touchbet"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if len(c.Venues) == 0 {
		return fmt.Errorf("FEED_VENUES cannot be empty")
	}

	if c.StaleThreshold <= 0 {
		return fmt.Errorf("FEED_STALE_THRESHOLD must be positive, got %s", c.StaleThreshold)
	}

	if c.EWMALambda <= 0 || c.EWMALambda >= 1.0 {
		return fmt.Errorf("FEED_EWMA_LAMBDA must be between 0 and 1.0, got %f", c.EWMALambda)
	}

	if c.SigmaMin <= 0 || c.SigmaMax <= c.SigmaMin {
		return fmt.Errorf("sigma bounds invalid: min=%f max=%f", c.SigmaMin, c.SigmaMax)
	}

	if c.HouseEdge <= 0 || c.HouseEdge > 1.0 {
		return fmt.Errorf("PRICING_HOUSE_EDGE must be between 0 and 1.0, got %f", c.HouseEdge)
	}

	if c.MaxMultiplier <= 1.0 {
		return fmt.Errorf("PRICING_MAX_MULTIPLIER must be greater than 1.0, got %f", c.MaxMultiplier)
	}

	if c.FarRowTargetProb <= 0 || c.FarRowTargetProb >= 1.0 {
		return fmt.Errorf("PRICING_FAR_ROW_TARGET_PROB must be between 0 and 1.0, got %f", c.FarRowTargetProb)
	}

	if c.RowsPerSide <= 0 {
		return fmt.Errorf("PRICING_ROWS_PER_SIDE must be positive, got %d", c.RowsPerSide)
	}

	if c.BoxDuration <= 0 {
		return fmt.Errorf("SETTLE_BOX_DURATION must be positive, got %s", c.BoxDuration)
	}

	if c.RiskMaxExposure > 0 {
		if c.RiskMaxDrawdown <= 0 {
			return fmt.Errorf("RISK_MAX_DRAWDOWN must be positive, got %f", c.RiskMaxDrawdown)
		}
		if c.RiskHysteresis < 1.0 {
			return fmt.Errorf("RISK_HYSTERESIS_RATIO must be >= 1.0, got %f", c.RiskHysteresis)
		}
	}

	if c.JournalMode != "console" && c.JournalMode != "postgres" {
		return fmt.Errorf("JOURNAL_MODE must be console or postgres, got %s", c.JournalMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}

	return out
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
