package monitor

import (
	"time"

	"github.com/clde-code/polycopy/market"
)

// Filter decides which observed trades are worth copying. The zero
// value copies everything.
type Filter struct {
	// MinQuoteSize and MaxQuoteSize bound the trade's notional value
	// (size * price). Zero disables the corresponding bound.
	MinQuoteSize float64 `yaml:"min_quote_size"`
	MaxQuoteSize float64 `yaml:"max_quote_size"`

	// AllowedMarkets, when non-empty, restricts copying to the listed
	// market ids.
	AllowedMarkets []string `yaml:"allowed_markets"`

	// From and To bound the event's observation time. Zero values
	// disable the corresponding bound. Used by backtests to replay a
	// slice of history.
	From time.Time `yaml:"from"`
	To   time.Time `yaml:"to"`

	allowed map[string]struct{}
}

// ShouldCopy reports whether the event passes every configured bound.
func (f *Filter) ShouldCopy(ev market.TradeEvent) bool {
	quote := ev.SizeQuote
	if quote == 0 {
		quote = ev.Size * ev.ReferencePrice
	}
	if f.MinQuoteSize > 0 && quote < f.MinQuoteSize {
		return false
	}
	if f.MaxQuoteSize > 0 && quote > f.MaxQuoteSize {
		return false
	}

	if len(f.AllowedMarkets) > 0 {
		if f.allowed == nil {
			f.allowed = make(map[string]struct{}, len(f.AllowedMarkets))
			for _, m := range f.AllowedMarkets {
				f.allowed[m] = struct{}{}
			}
		}
		if _, ok := f.allowed[ev.MarketID]; !ok {
			return false
		}
	}

	if !f.From.IsZero() && ev.ObservedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ev.ObservedAt.After(f.To) {
		return false
	}
	return true
}
