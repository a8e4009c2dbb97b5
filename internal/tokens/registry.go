package tokens

import (
	"fmt"
	"sort"
	"time"

	"github.com/tapline/touchbet/pkg/cache"
)

// Meta describes a listed token: display fields plus the trading
// parameters (taxes, leverage cap) applied on placement.
type Meta struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker"`
	Description string  `json:"description"`
	Theme       string  `json:"theme"`
	BuyTaxPct   float64 `json:"buyTaxPct"`
	SellTaxPct  float64 `json:"sellTaxPct"`
	MaxLeverage int       `json:"maxLeverage"`
	LaunchedAt  time.Time `json:"launchedAt"`
}

// ErrUnknownToken is returned when a token ID is not in the listing.
type ErrUnknownToken struct {
	ID string
}

func (e *ErrUnknownToken) Error() string {
	return fmt.Sprintf("unknown token: %s", e.ID)
}

// Registry serves token metadata with a read-through cache in front of
// the listing source.
type Registry struct {
	source map[string]Meta
	cache  cache.Cache
	ttl    time.Duration
}

// NewRegistry creates a registry over the built-in listing.
func NewRegistry(c cache.Cache) *Registry {
	return &Registry{
		source: builtinListing(),
		cache:  c,
		ttl:    24 * time.Hour,
	}
}

// Get returns metadata for a token ID.
func (r *Registry) Get(id string) (Meta, error) {
	if r.cache != nil {
		cacheKey := fmt.Sprintf("token:%s", id)
		if cached, ok := r.cache.Get(cacheKey); ok {
			if meta, ok := cached.(Meta); ok {
				MetadataCacheHitsTotal.Inc()
				return meta, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	meta, ok := r.source[id]
	if !ok {
		return Meta{}, &ErrUnknownToken{ID: id}
	}

	if r.cache != nil {
		cacheKey := fmt.Sprintf("token:%s", id)
		r.cache.Set(cacheKey, meta, r.ttl)
	}
	return meta, nil
}

// List returns all listed tokens ordered by launch time, newest first.
func (r *Registry) List() []Meta {
	out := make([]Meta, 0, len(r.source))
	for _, m := range r.source {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LaunchedAt.After(out[j].LaunchedAt)
	})
	return out
}

func builtinListing() map[string]Meta {
	now := time.Now()
	day := 24 * time.Hour
	listing := []Meta{
		{
			ID: "pepe-trump-2026", Name: "Pepe Trump", Ticker: "$PTRUMP",
			Description: "The most tremendous meme token. Believe me, nobody does memes better.",
			Theme:       "Political Meme",
			BuyTaxPct:   1.8, SellTaxPct: 17.2, MaxLeverage: 50,
			LaunchedAt: now,
		},
		{
			ID: "doge-elon", Name: "Doge Elon", Ticker: "$DELON",
			Description: "To Mars and beyond with the Dogefather",
			Theme:       "Space Meme",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-1 * day),
		},
		{
			ID: "cat-wif-hat", Name: "Cat Wif Hat", Ticker: "$CWH",
			Description: "The classiest cat in crypto",
			Theme:       "Fashion Meme",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-2 * day),
		},
		{
			ID: "wojak-winter", Name: "Wojak Winter", Ticker: "$WOJAK",
			Description: "Freezing through the bear market",
			Theme:       "Bear Market",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-3 * day),
		},
		{
			ID: "moon-boy", Name: "Moon Boy", Ticker: "$MOON",
			Description: "Wen moon? Now moon!",
			Theme:       "Bull Run",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-4 * day),
		},
		{
			ID: "chad-coin", Name: "Chad Coin", Ticker: "$CHAD",
			Description: "Yes.",
			Theme:       "Gigachad",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-5 * day),
		},
		{
			ID: "bobo-tears", Name: "Bobo Tears", Ticker: "$BOBO",
			Description: "The pain is real",
			Theme:       "Emotional",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-6 * day),
		},
		{
			ID: "scheming-pepe", Name: "Scheming Pepe", Ticker: "$SCHEME",
			Description: "Always plotting something",
			Theme:       "Big Brain",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-7 * day),
		},
		{
			ID: "laser-eyes", Name: "Laser Eyes", Ticker: "$LASER",
			Description: "Bitcoin to 100k",
			Theme:       "Crypto OG",
			BuyTaxPct:   5, SellTaxPct: 5, MaxLeverage: 50,
			LaunchedAt: now.Add(-8 * day),
		},
	}
	out := make(map[string]Meta, len(listing))
	for _, m := range listing {
		out[m.ID] = m
	}
	return out
}
