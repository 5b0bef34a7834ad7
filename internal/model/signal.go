package model

// SignalKind is the classifier's tagged outcome.
type SignalKind string

const (
	SignalLoading     SignalKind = "LOADING"
	SignalSell        SignalKind = "SELL"
	SignalWait        SignalKind = "WAIT"
	SignalBuyDip      SignalKind = "BUY_DIP"
	SignalBuyBreakout SignalKind = "BUY_BREAKOUT"
	SignalBuySupport  SignalKind = "BUY_SUPPORT"
	SignalHold        SignalKind = "HOLD"
)

// Signal is the classifier output for one instrument.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	Action string     `json:"action"`
	Reason string     `json:"reason"`
}
