// Package websocket holds connection-lifecycle helpers shared by the venue
// connectors: exponential-backoff reconnection with jitter.
package websocket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackoffConfig controls reconnection pacing. The delay before attempt n is
// min(Initial * Multiplier^(n-1), Max) plus up to JitterPercent of random
// spread, so a fleet of connectors does not thunder back in lockstep.
type BackoffConfig struct {
	Initial       time.Duration
	Max           time.Duration
	Multiplier    float64
	JitterPercent float64 // 0.2 = up to 20% extra
}

// Reconnector retries a connect function with exponential backoff. The
// attempt counter resets to zero on every successful connect.
type Reconnector struct {
	config  BackoffConfig
	logger  *zap.Logger
	mu      sync.Mutex
	attempt int
}

// NewReconnector creates a Reconnector with the given pacing.
func NewReconnector(cfg BackoffConfig, logger *zap.Logger) *Reconnector {
	return &Reconnector{config: cfg, logger: logger}
}

// Run calls connect until it succeeds or ctx is cancelled, sleeping the
// backoff delay before each attempt.
func (r *Reconnector) Run(ctx context.Context, connect func(context.Context) error) error {
	for {
		delay := r.nextDelay()

		r.logger.Info("reconnect-waiting",
			zap.Duration("delay", delay),
			zap.Int("attempt", r.Attempt()))

		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connect(ctx)
		if err == nil {
			r.Reset()
			r.logger.Info("reconnect-successful")
			return nil
		}

		r.logger.Warn("reconnect-failed", zap.Error(err))
		ReconnectFailuresTotal.Inc()
	}
}

// Reset clears the attempt counter after a successful connection.
func (r *Reconnector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = 0
}

// Attempt returns the number of failed attempts in the current outage.
func (r *Reconnector) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

// nextDelay advances the attempt counter and returns the jittered delay for it.
func (r *Reconnector) nextDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt++

	base := float64(r.config.Initial)
	for i := 1; i < r.attempt; i++ {
		base *= r.config.Multiplier
		if base >= float64(r.config.Max) {
			base = float64(r.config.Max)
			break
		}
	}

	jitter := rand.Float64() * r.config.JitterPercent * base

	delay := time.Duration(base + jitter)
	if capped := r.config.Max + time.Duration(r.config.JitterPercent*float64(r.config.Max)); delay > capped {
		delay = capped
	}

	return delay
}
