package collector

import (
	"context"

	"MarketPulse/internal/model"
)

// RawQuote is the uniform result of any source before normalization.
type RawQuote struct {
	Symbol          string
	Price           float64
	PrevClose       float64
	MarketState     string // upstream session label, e.g. REGULAR, PRE, POST, CLOSED
	PreMarketPrice  *float64
	PostMarketPrice *float64
	History         []float64 // closing prices, oldest first
	Source          model.QuoteSource
}

// Fetcher resolves a single symbol to a quote with history.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*RawQuote, error)
	Name() string
}

// BatchFetcher resolves many symbols in one request. Enabled reports
// whether the source is configured at all; a disabled source is skipped,
// never attempted.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, symbols []string) ([]RawQuote, error)
	Enabled() bool
	Name() string
}
