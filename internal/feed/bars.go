package feed

import (
	"sort"
	"time"

	"github.com/tapline/touchbet/pkg/types"
)

// rawTick is one venue mid observation, kept only long enough to build bars.
type rawTick struct {
	at    time.Time
	price float64
	venue string
}

// barSet owns the raw-tick ring and the per-second OHLC bars. Not safe for
// concurrent use; the aggregator serializes access.
type barSet struct {
	rawWindow time.Duration // how long raw ticks are retained
	retention time.Duration // how long second bars are retained

	raw  []rawTick
	bars map[int64]*types.SecondBar
}

func newBarSet(rawWindow, retention time.Duration) *barSet {
	return &barSet{
		rawWindow: rawWindow,
		retention: retention,
		bars:      make(map[int64]*types.SecondBar),
	}
}

// add records one raw mid observation and updates the current second's bar.
func (s *barSet) add(at time.Time, price float64, venue string) {
	s.raw = append(s.raw, rawTick{at: at, price: price, venue: venue})

	// Prune the raw ring in place.
	cutoff := at.Add(-s.rawWindow)
	keep := s.raw[:0]
	for _, t := range s.raw {
		if t.at.After(cutoff) {
			keep = append(keep, t)
		}
	}
	s.raw = keep

	second := at.Unix()
	bar, ok := s.bars[second]
	if !ok {
		s.bars[second] = &types.SecondBar{
			Second:    second,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			TickCount: 1,
		}
	} else {
		if price > bar.High {
			bar.High = price
		}
		if price < bar.Low {
			bar.Low = price
		}
		bar.Close = price
		bar.TickCount++
	}

	barCutoff := second - int64(s.retention/time.Second)
	for sec := range s.bars {
		if sec < barCutoff {
			delete(s.bars, sec)
		}
	}
}

// currentRange returns the high/low of the current second, falling back to
// the given price when no bar exists yet.
func (s *barSet) currentRange(now time.Time, fallback float64) (high, low float64) {
	bar, ok := s.bars[now.Unix()]
	if !ok || bar.TickCount == 0 {
		return fallback, fallback
	}
	return bar.High, bar.Low
}

// bar returns the bar for a given epoch second, if retained.
func (s *barSet) bar(second int64) (types.SecondBar, bool) {
	b, ok := s.bars[second]
	if !ok {
		return types.SecondBar{}, false
	}
	return *b, true
}

// recent returns up to count bars, newest first.
func (s *barSet) recent(count int) []types.SecondBar {
	out := make([]types.SecondBar, 0, len(s.bars))
	for _, b := range s.bars {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Second > out[j].Second })
	if len(out) > count {
		out = out[:count]
	}
	return out
}
