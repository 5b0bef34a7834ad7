package strategy

import (
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

// Classify maps a quote's price, 20-period moving average and 14-period RSI
// to an actionable signal. Rules are evaluated in order, first match wins.
// The function is total: missing or non-numeric inputs yield LOADING, and
// every path returns exactly one tagged outcome.
func Classify(price float64, ma20, rsi14 *float64, class model.InstrumentClass) model.Signal {
	if ma20 == nil || rsi14 == nil || !isNumeric(price) || !isNumeric(*ma20) || !isNumeric(*rsi14) {
		return model.Signal{
			Kind:   model.SignalLoading,
			Action: "Loading",
			Reason: "waiting for indicator data",
		}
	}

	ma := *ma20
	rsi := *rsi14
	disparity := (price - ma) / ma * 100

	// Overbought: harvest gains regardless of class.
	if rsi >= 70 {
		return model.Signal{
			Kind:   model.SignalSell,
			Action: "Sell (take profit)",
			Reason: fmt.Sprintf("RSI %.1f overbought; scale out and harvest gains", rsi),
		}
	}

	// Below the 20-period line: downtrend, no new buys.
	if price < ma {
		return model.Signal{
			Kind:   model.SignalWait,
			Action: "Wait",
			Reason: fmt.Sprintf("broke below MA20 (disparity %.1f%%); no new buys until a confirmed rebound", disparity),
		}
	}

	switch class {
	case model.ClassCore, model.ClassSafe, model.ClassIncome:
		if disparity >= 0 && disparity <= 3.5 && rsi < 60 {
			return model.Signal{
				Kind:   model.SignalBuyDip,
				Action: "Buy (pullback)",
				Reason: fmt.Sprintf("holding MA20 support (disparity +%.1f%%); staged pullback entry", disparity),
			}
		}
	case model.ClassAlpha:
		if rsi >= 60 && rsi < 70 {
			return model.Signal{
				Kind:   model.SignalBuyBreakout,
				Action: "Buy (breakout)",
				Reason: fmt.Sprintf("strong momentum (RSI %.1f); add on a break of the prior high", rsi),
			}
		}
		if disparity >= 0 && disparity <= 4.0 && rsi < 60 {
			return model.Signal{
				Kind:   model.SignalBuySupport,
				Action: "Buy (support)",
				Reason: fmt.Sprintf("trend support confirmed (disparity +%.1f%%)", disparity),
			}
		}
	}

	return model.Signal{
		Kind:   model.SignalHold,
		Action: "Hold",
		Reason: "stable uptrend above MA20; no action",
	}
}

// ClassifyQuote runs Classify on a cached quote record.
func ClassifyQuote(q *model.Quote, class model.InstrumentClass) model.Signal {
	if q == nil {
		return Classify(math.NaN(), nil, nil, class)
	}
	var rsi *float64
	if q.RSI14 != nil {
		v := float64(*q.RSI14)
		rsi = &v
	}
	return Classify(q.Price, q.MA20, rsi, class)
}

func isNumeric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
