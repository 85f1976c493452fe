package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SymbolSummary reduces a window of bars to one record per symbol.
// Built once per fetch and never mutated afterwards.
type SymbolSummary struct {
	Symbol      string
	StartPrice  decimal.Decimal
	EndPrice    decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	BaseVolume  decimal.Decimal
	QuoteVolume decimal.Decimal
}

// Change is the absolute price move over the window.
func (s SymbolSummary) Change() decimal.Decimal {
	return s.EndPrice.Sub(s.StartPrice)
}

// ChangePct is the percentage move over the window, zero when the window
// opened at zero.
func (s SymbolSummary) ChangePct() decimal.Decimal {
	if s.StartPrice.IsZero() {
		return decimal.Zero
	}
	return s.Change().Div(s.StartPrice).Mul(hundred)
}

// Summarize reduces a non-empty chronological bar sequence: start price is
// the first bar's open, end price the last bar's close, high/low the
// extremes across all bars, volumes the sums. Bars are taken in the order
// given; out-of-order input produces undefined results.
func Summarize(symbol string, bars []Kline) SymbolSummary {
	s := SymbolSummary{
		Symbol:     symbol,
		StartPrice: bars[0].Open,
		EndPrice:   bars[len(bars)-1].Close,
		High:       bars[0].High,
		Low:        bars[0].Low,
	}
	for _, b := range bars {
		if b.High.GreaterThan(s.High) {
			s.High = b.High
		}
		if b.Low.LessThan(s.Low) {
			s.Low = b.Low
		}
		s.BaseVolume = s.BaseVolume.Add(b.BaseVolume)
		s.QuoteVolume = s.QuoteVolume.Add(b.QuoteVolume)
	}
	return s
}

// FetchAndSummarize fetches bars for one symbol and reduces them. Failure
// is symbol-scoped: the caller logs it and moves to the next symbol.
func (c *Client) FetchAndSummarize(ctx context.Context, symbol string, start, end time.Time, interval string) (SymbolSummary, error) {
	bars, err := c.FetchKlines(ctx, symbol, start, end, interval)
	if err != nil {
		return SymbolSummary{}, err
	}
	return Summarize(symbol, bars), nil
}
