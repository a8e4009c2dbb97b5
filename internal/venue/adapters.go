package venue

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tapline/touchbet/pkg/types"
)

// Adapter describes one venue's wire protocol: where to connect, how to
// subscribe, and how to map its messages into a normalized quote. Parse
// returns nil for control, heartbeat, or unparseable messages; those are
// counted and dropped, never surfaced as errors. Adding a venue means adding
// one Adapter here, nothing in the aggregator changes.
type Adapter struct {
	Name string
	URL  string

	// Subscribe is the message sent right after the socket opens.
	// Nil when the venue subscribes via the URL itself.
	Subscribe func() []byte

	// Parse maps one raw frame to a normalized quote, or nil to ignore it.
	Parse func(raw []byte) *types.Quote

	// HeartbeatInterval and HeartbeatPayload describe venue-mandated
	// application-level pings. Zero interval means standard ws ping frames.
	HeartbeatInterval time.Duration
	HeartbeatPayload  func() []byte
}

// Registry returns the built-in venue adapters keyed by name.
func Registry() map[string]Adapter {
	adapters := []Adapter{
		binanceAdapter(),
		coinbaseAdapter(),
		krakenAdapter(),
		bitstampAdapter(),
	}

	out := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		out[a.Name] = a
	}
	return out
}

func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// binanceAdapter streams the raw trade channel. Binance gives no top-of-book
// on this stream, so the last trade doubles as a synthetic two-sided quote.
func binanceAdapter() Adapter {
	type binanceTrade struct {
		EventType string `json:"e"`
		Price     string `json:"p"`
	}

	return Adapter{
		Name: "binance",
		URL:  "wss://stream.binance.com:9443/ws/btcusdt@trade",
		Parse: func(raw []byte) *types.Quote {
			var msg binanceTrade
			if err := json.Unmarshal(raw, &msg); err != nil || msg.EventType != "trade" {
				return nil
			}
			trade := parsePrice(msg.Price)
			if trade == nil {
				return nil
			}
			return &types.Quote{Bid: trade, Ask: trade, Trade: trade}
		},
	}
}

func coinbaseAdapter() Adapter {
	type coinbaseTicker struct {
		Type    string `json:"type"`
		BestBid string `json:"best_bid"`
		BestAsk string `json:"best_ask"`
		Price   string `json:"price"`
	}

	return Adapter{
		Name: "coinbase",
		URL:  "wss://ws-feed.exchange.coinbase.com",
		Subscribe: func() []byte {
			msg, _ := json.Marshal(map[string]interface{}{
				"type":        "subscribe",
				"product_ids": []string{"BTC-USD"},
				"channels":    []string{"ticker"},
			})
			return msg
		},
		Parse: func(raw []byte) *types.Quote {
			var msg coinbaseTicker
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "ticker" {
				return nil
			}
			bid := parsePrice(msg.BestBid)
			ask := parsePrice(msg.BestAsk)
			if bid == nil || ask == nil {
				return nil
			}
			return &types.Quote{Bid: bid, Ask: ask, Trade: parsePrice(msg.Price)}
		},
	}
}

// krakenAdapter speaks Kraken's v1 ticker channel. Data frames are JSON
// arrays [channelID, ticker, "ticker", pair]; event frames (heartbeat, pong,
// systemStatus, subscriptionStatus) are objects and are ignored. Kraken
// requires an application-level ping every 30s.
func krakenAdapter() Adapter {
	type krakenTicker struct {
		Ask  []string `json:"a"`
		Bid  []string `json:"b"`
		Last []string `json:"c"`
	}

	return Adapter{
		Name: "kraken",
		URL:  "wss://ws.kraken.com",
		Subscribe: func() []byte {
			msg, _ := json.Marshal(map[string]interface{}{
				"event":        "subscribe",
				"pair":         []string{"XBT/USD"},
				"subscription": map[string]string{"name": "ticker"},
			})
			return msg
		},
		Parse: func(raw []byte) *types.Quote {
			var frame []json.RawMessage
			if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 2 {
				return nil
			}
			var ticker krakenTicker
			if err := json.Unmarshal(frame[1], &ticker); err != nil {
				return nil
			}
			if len(ticker.Bid) == 0 || len(ticker.Ask) == 0 {
				return nil
			}
			bid := parsePrice(ticker.Bid[0])
			ask := parsePrice(ticker.Ask[0])
			if bid == nil || ask == nil {
				return nil
			}
			q := &types.Quote{Bid: bid, Ask: ask}
			if len(ticker.Last) > 0 {
				q.Trade = parsePrice(ticker.Last[0])
			}
			return q
		},
		HeartbeatInterval: 30 * time.Second,
		HeartbeatPayload: func() []byte {
			return []byte(`{"event":"ping"}`)
		},
	}
}

// bitstampAdapter is a trade-only venue: no order book feed, so its quotes can only
// ever contribute to the LAST-quality fallback price.
func bitstampAdapter() Adapter {
	type bitstampTrade struct {
		Event string `json:"event"`
		Data  struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}

	return Adapter{
		Name: "bitstamp",
		URL:  "wss://ws.bitstamp.net",
		Subscribe: func() []byte {
			msg, _ := json.Marshal(map[string]interface{}{
				"event": "bts:subscribe",
				"data":  map[string]string{"channel": "live_trades_btcusd"},
			})
			return msg
		},
		Parse: func(raw []byte) *types.Quote {
			var msg bitstampTrade
			if err := json.Unmarshal(raw, &msg); err != nil || msg.Event != "trade" {
				return nil
			}
			if msg.Data.Price <= 0 {
				return nil
			}
			trade := msg.Data.Price
			return &types.Quote{Trade: &trade}
		},
	}
}
