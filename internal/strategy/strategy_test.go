package strategy

import (
	"math"
	"strings"
	"testing"

	"MarketPulse/internal/model"
)

func fp(v float64) *float64 { return &v }

func TestClassify_MissingInputs(t *testing.T) {
	cases := []struct {
		name  string
		price float64
		ma    *float64
		rsi   *float64
	}{
		{"nil ma", 100, nil, fp(50)},
		{"nil rsi", 100, fp(95), nil},
		{"nan price", math.NaN(), fp(95), fp(50)},
		{"nan ma", 100, fp(math.NaN()), fp(50)},
		{"inf rsi", 100, fp(95), fp(math.Inf(1))},
	}
	for _, tc := range cases {
		sig := Classify(tc.price, tc.ma, tc.rsi, model.ClassCore)
		if sig.Kind != model.SignalLoading {
			t.Errorf("%s: expected LOADING, got %s", tc.name, sig.Kind)
		}
	}
}

func TestClassify_SellPrecedesWait(t *testing.T) {
	// Overbought AND below MA20: rule order says SELL wins.
	sig := Classify(90, fp(100), fp(75), model.ClassCore)
	if sig.Kind != model.SignalSell {
		t.Fatalf("expected SELL, got %s", sig.Kind)
	}
	if !strings.Contains(sig.Reason, "75.0") {
		t.Errorf("reason should embed the RSI value, got %q", sig.Reason)
	}
}

func TestClassify_WaitBelowMA(t *testing.T) {
	sig := Classify(95, fp(100), fp(45), model.ClassAlpha)
	if sig.Kind != model.SignalWait {
		t.Fatalf("expected WAIT, got %s", sig.Kind)
	}
	if !strings.Contains(sig.Reason, "-5.0%") {
		t.Errorf("reason should embed the disparity, got %q", sig.Reason)
	}
}

func TestClassify_BuyDipForStableClasses(t *testing.T) {
	for _, class := range []model.InstrumentClass{model.ClassCore, model.ClassSafe, model.ClassIncome} {
		sig := Classify(102, fp(100), fp(55), class)
		if sig.Kind != model.SignalBuyDip {
			t.Errorf("%s: expected BUY_DIP, got %s", class, sig.Kind)
		}
	}
	// Disparity above the 3.5% band falls through to HOLD.
	if sig := Classify(104, fp(100), fp(55), model.ClassCore); sig.Kind != model.SignalHold {
		t.Errorf("expected HOLD beyond dip band, got %s", sig.Kind)
	}
	// RSI 60 blocks the dip entry.
	if sig := Classify(102, fp(100), fp(60), model.ClassCore); sig.Kind != model.SignalHold {
		t.Errorf("expected HOLD at RSI 60, got %s", sig.Kind)
	}
}

func TestClassify_AlphaRules(t *testing.T) {
	if sig := Classify(110, fp(100), fp(65), model.ClassAlpha); sig.Kind != model.SignalBuyBreakout {
		t.Errorf("expected BUY_BREAKOUT, got %s", sig.Kind)
	}
	if sig := Classify(103, fp(100), fp(50), model.ClassAlpha); sig.Kind != model.SignalBuySupport {
		t.Errorf("expected BUY_SUPPORT, got %s", sig.Kind)
	}
	// Alpha support band is wider (4.0%) than the stable-class band.
	if sig := Classify(103.8, fp(100), fp(50), model.ClassAlpha); sig.Kind != model.SignalBuySupport {
		t.Errorf("expected BUY_SUPPORT at +3.8%%, got %s", sig.Kind)
	}
	if sig := Classify(105, fp(100), fp(50), model.ClassAlpha); sig.Kind != model.SignalHold {
		t.Errorf("expected HOLD beyond support band, got %s", sig.Kind)
	}
}

func TestClassify_Total(t *testing.T) {
	classes := []model.InstrumentClass{model.ClassCore, model.ClassAlpha, model.ClassSafe, model.ClassIncome, ""}
	mas := []*float64{nil, fp(100), fp(math.NaN())}
	rsis := []*float64{nil, fp(0), fp(59.9), fp(60), fp(69.9), fp(70), fp(100), fp(math.NaN())}
	prices := []float64{math.NaN(), 0, 95, 100, 103, 110}

	for _, class := range classes {
		for _, ma := range mas {
			for _, rsi := range rsis {
				for _, price := range prices {
					sig := Classify(price, ma, rsi, class)
					if sig.Kind == "" || sig.Action == "" || sig.Reason == "" {
						t.Fatalf("incomplete signal for price=%v ma=%v rsi=%v class=%v: %+v",
							price, ma, rsi, class, sig)
					}
				}
			}
		}
	}
}

func TestClassifyQuote_NilQuote(t *testing.T) {
	if sig := ClassifyQuote(nil, model.ClassCore); sig.Kind != model.SignalLoading {
		t.Errorf("expected LOADING for nil quote, got %s", sig.Kind)
	}
}
