package model

import "strings"

// InstrumentClass drives which classifier rules apply to an instrument.
type InstrumentClass string

const (
	ClassCore   InstrumentClass = "CORE"
	ClassAlpha  InstrumentClass = "ALPHA"
	ClassSafe   InstrumentClass = "SAFE"
	ClassIncome InstrumentClass = "INCOME"
)

// Instrument is one tracked ticker.
type Instrument struct {
	Symbol string          `yaml:"symbol" json:"symbol"`
	Name   string          `yaml:"name" json:"name"`
	Class  InstrumentClass `yaml:"class" json:"class"`
}

// IsKoreanListing reports whether the symbol trades on KRX/KOSDAQ.
// Those listings have no modeled pre/post session, so off-hours quotes
// are labeled CLOSED instead of trusting the upstream session state.
func IsKoreanListing(symbol string) bool {
	return strings.HasSuffix(symbol, ".KS") || strings.HasSuffix(symbol, ".KQ")
}
