// Package venue maintains one streaming connection per external price venue
// and forwards normalized quotes to the feed aggregator. Connectors recover
// from disconnects on their own with backoff; venue failures never propagate
// past this package.
package venue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tapline/touchbet/pkg/types"
	ws "github.com/tapline/touchbet/pkg/websocket"
	"go.uber.org/zap"
)

// Config holds connector configuration.
type Config struct {
	Adapter      Adapter
	Sink         chan<- types.VenueEvent
	DialTimeout  time.Duration
	PingInterval time.Duration // used when the adapter has no app-level heartbeat
	PongTimeout  time.Duration // read deadline; zero disables
	Backoff      ws.BackoffConfig
	Logger       *zap.Logger
}

// Connector owns a single venue connection for its whole lifecycle:
// dial, subscribe, read, heartbeat, reconnect.
type Connector struct {
	cfg         Config
	adapter     Adapter
	logger      *zap.Logger
	reconnector *ws.Reconnector

	mu         sync.Mutex
	conn       *websocket.Conn
	reconnects int

	wg sync.WaitGroup
}

// New creates a connector for one venue.
func New(cfg Config) *Connector {
	return &Connector{
		cfg:         cfg,
		adapter:     cfg.Adapter,
		logger:      cfg.Logger.With(zap.String("venue", cfg.Adapter.Name)),
		reconnector: ws.NewReconnector(cfg.Backoff, cfg.Logger.With(zap.String("venue", cfg.Adapter.Name))),
	}
}

// Start launches the connection loop. It returns immediately; all I/O is
// asynchronous and quote delivery to the sink is non-blocking.
func (c *Connector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

// Close tears down the current connection and waits for the loop to exit.
// After Close returns no further events are delivered to the sink.
func (c *Connector) Close() {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// run is the connection lifecycle loop: connect, read until failure, hand the
// redial to the Reconnector, repeat until the context is cancelled.
func (c *Connector) run(ctx context.Context) {
	defer c.wg.Done()

	c.emitStatus(ctx, types.VenueConnecting)
	if err := c.connect(ctx); err != nil {
		c.emitStatus(ctx, types.VenueDisconnected)
		if c.reconnector.Run(ctx, c.attemptConnect) != nil {
			return
		}
	}

	for {
		c.emitStatus(ctx, types.VenueConnected)

		pingCtx, stopPing := context.WithCancel(ctx)
		c.wg.Add(1)
		go c.heartbeatLoop(pingCtx)

		c.readLoop(ctx)
		stopPing()

		c.emitStatus(ctx, types.VenueDisconnected)

		if ctx.Err() != nil {
			return
		}

		// The Reconnector owns the dial retries: its attempt counter keeps
		// growing across consecutive failures and resets only when a dial
		// actually opens, so the delays escalate through a long outage.
		if c.reconnector.Run(ctx, c.attemptConnect) != nil {
			return
		}
	}
}

// attemptConnect is one counted redial attempt, run inside the Reconnector's
// retry loop after its backoff sleep.
func (c *Connector) attemptConnect(ctx context.Context) error {
	c.emitStatus(ctx, types.VenueConnecting)

	c.mu.Lock()
	c.reconnects++
	c.mu.Unlock()
	ReconnectsTotal.WithLabelValues(c.adapter.Name).Inc()

	err := c.connect(ctx)
	if err != nil {
		c.emitStatus(ctx, types.VenueDisconnected)
	}

	return err
}

func (c *Connector) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}

	c.logger.Info("venue-connecting", zap.String("url", c.adapter.URL))

	conn, _, err := dialer.DialContext(ctx, c.adapter.URL, nil)
	if err != nil {
		c.logger.Warn("venue-dial-failed", zap.Error(err))
		return fmt.Errorf("dial %s: %w", c.adapter.Name, err)
	}

	if c.cfg.PongTimeout > 0 {
		// A dead TCP peer should fail the read well before the staleness
		// sweep has to notice. Protocol pongs and data frames both extend
		// the deadline; app-level pongs arrive as data frames.
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		})
	}

	if c.adapter.Subscribe != nil {
		err = conn.WriteMessage(websocket.TextMessage, c.adapter.Subscribe())
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("subscribe %s: %w", c.adapter.Name, err)
		}
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	ActiveConnections.WithLabelValues(c.adapter.Name).Set(1)
	c.logger.Info("venue-connected")

	return nil
}

// readLoop reads frames until the connection breaks, parsing each through the
// venue adapter and forwarding quotes to the aggregator's sink.
func (c *Connector) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("venue-read-error", zap.Error(err))
			}
			ActiveConnections.WithLabelValues(c.adapter.Name).Set(0)
			return
		}

		MessagesReceivedTotal.WithLabelValues(c.adapter.Name).Inc()

		if c.cfg.PongTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		}

		quote := c.adapter.Parse(raw)
		if quote == nil {
			MessagesIgnoredTotal.WithLabelValues(c.adapter.Name).Inc()
			continue
		}

		c.mu.Lock()
		reconnects := c.reconnects
		c.mu.Unlock()

		event := types.VenueEvent{
			Venue:      c.adapter.Name,
			At:         time.Now(),
			Quote:      quote,
			Reconnects: reconnects,
		}

		select {
		case c.cfg.Sink <- event:
		default:
			// The aggregator only needs the freshest quote each second, so
			// dropping under backpressure is safe.
			QuotesDroppedTotal.WithLabelValues(c.adapter.Name).Inc()
		}
	}
}

// heartbeatLoop sends the venue-mandated ping while the connection is up.
func (c *Connector) heartbeatLoop(ctx context.Context) {
	defer c.wg.Done()

	interval := c.adapter.HeartbeatInterval
	if interval == 0 {
		interval = c.cfg.PingInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()

			if conn == nil {
				continue
			}

			var err error
			if c.adapter.HeartbeatPayload != nil {
				err = conn.WriteMessage(websocket.TextMessage, c.adapter.HeartbeatPayload())
			} else {
				err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			}
			if err != nil {
				c.logger.Warn("venue-ping-error", zap.Error(err))
			}
		}
	}
}

// emitStatus delivers a quote-less status transition to the aggregator.
func (c *Connector) emitStatus(ctx context.Context, status types.VenueStatus) {
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	reconnects := c.reconnects
	c.mu.Unlock()

	event := types.VenueEvent{
		Venue:      c.adapter.Name,
		At:         time.Now(),
		Status:     status,
		Reconnects: reconnects,
	}

	select {
	case c.cfg.Sink <- event:
	default:
	}
}
