package model

import "time"

// MarketSession classifies trading activity at the moment a quote was taken.
type MarketSession string

const (
	SessionLive      MarketSession = "LIVE"
	SessionPre       MarketSession = "PRE"
	SessionPost      MarketSession = "POST"
	SessionClosed    MarketSession = "CLOSED"
	SessionExtended  MarketSession = "EXTENDED"
	SessionSimulated MarketSession = "SIMULATED"
)

// QuoteSource indicates which upstream produced a quote.
type QuoteSource string

const (
	SourcePrimary    QuoteSource = "PRIMARY_API"
	SourceBatch      QuoteSource = "SECONDARY_BATCH"
	SourceSimulation QuoteSource = "SIMULATION"
)

// Quote is the latest known state of a single instrument.
// MA20 and RSI14 are nil until enough history has accumulated.
type Quote struct {
	Symbol             string        `json:"symbol"`
	Price              float64       `json:"price"`
	Change             float64       `json:"change"`
	ChangePercent      float64       `json:"change_percent"`
	PrevClose          float64       `json:"prev_close"`
	LastCompletedClose float64       `json:"last_completed_close"`
	MA20               *float64      `json:"ma20,omitempty"`
	RSI14              *int          `json:"rsi14,omitempty"`
	Session            MarketSession `json:"session"`
	Source             QuoteSource   `json:"source"`
	Timestamp          time.Time     `json:"timestamp"`
	History            []float64     `json:"-"`
}
