package alert

import (
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/model"
	"MarketPulse/internal/store"
)

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDispatcher(t *testing.T, rule store.AlertRule) (*Dispatcher, *fakeNotifier, *clock) {
	t.Helper()
	kv := store.NewMemoryStore()
	if err := store.SaveRule(kv, rule); err != nil {
		t.Fatal(err)
	}
	n := &fakeNotifier{}
	d := NewDispatcher(kv, n)
	c := &clock{t: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
	d.Now = c.now
	return d, n, c
}

func quote(symbol string, price float64) model.Quote {
	return model.Quote{Symbol: symbol, Price: price}
}

func TestEvaluate_DedupSameDay(t *testing.T) {
	d, n, c := newTestDispatcher(t, store.AlertRule{
		Symbol:            "TQQQ",
		BasePrice:         100,
		ThresholdPercents: []float64{7},
		Enabled:           true,
	})

	// Quote sequence 95, 92, 90 on the same calendar day: the 7% level
	// (target 93) is breached twice but must fire exactly once.
	for _, price := range []float64{95, 92, 90} {
		d.Evaluate(quote("TQQQ", price))
		c.advance(31 * time.Second)
	}
	if len(n.sent) != 1 {
		t.Fatalf("expected exactly 1 alert, got %d", len(n.sent))
	}
	if !strings.Contains(n.sent[0], "TQQQ") || !strings.Contains(n.sent[0], "92.00") {
		t.Errorf("alert should name the ticker and price, got %q", n.sent[0])
	}
	if !strings.Contains(n.sent[0], "93.00") {
		t.Errorf("alert should contain the target price, got %q", n.sent[0])
	}

	// The next calendar day the same price is eligible again.
	c.advance(24 * time.Hour)
	d.Evaluate(quote("TQQQ", 90))
	if len(n.sent) != 2 {
		t.Fatalf("expected a second alert on the next day, got %d", len(n.sent))
	}
}

func TestEvaluate_DeepestLevelFirst(t *testing.T) {
	d, n, _ := newTestDispatcher(t, store.AlertRule{
		Symbol:            "SOXL",
		BasePrice:         100,
		ThresholdPercents: []float64{7, 14},
		Enabled:           true,
	})

	// 80 breaches both levels; the deeper one (-14%, target 86) is
	// reported first.
	d.Evaluate(quote("SOXL", 80))
	if len(n.sent) != 2 {
		t.Fatalf("expected both levels to fire, got %d", len(n.sent))
	}
	if !strings.Contains(n.sent[0], "-14%") {
		t.Errorf("deepest discount should be dispatched first, got %q", n.sent[0])
	}
	if !strings.Contains(n.sent[1], "-7%") {
		t.Errorf("shallower level second, got %q", n.sent[1])
	}
}

func TestEvaluate_Debounce(t *testing.T) {
	d, n, c := newTestDispatcher(t, store.AlertRule{
		Symbol:            "NVDL",
		BasePrice:         100,
		ThresholdPercents: []float64{5},
		Enabled:           true,
	})

	d.Evaluate(quote("NVDL", 94))
	if len(n.sent) != 1 {
		t.Fatalf("expected first evaluation to fire, got %d", len(n.sent))
	}

	// Within the debounce window even a new deeper rule state is skipped.
	kv := d.Store
	if err := store.SaveRule(kv, store.AlertRule{
		Symbol: "NVDL", BasePrice: 200, ThresholdPercents: []float64{5}, Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}
	c.advance(10 * time.Second)
	d.Evaluate(quote("NVDL", 94))
	if len(n.sent) != 1 {
		t.Errorf("evaluation inside the debounce window must be skipped")
	}
}

func TestEvaluate_InvalidConfigIsSilent(t *testing.T) {
	d, n, c := newTestDispatcher(t, store.AlertRule{
		Symbol:            "TSLL",
		BasePrice:         0, // unset base price
		ThresholdPercents: []float64{7},
		Enabled:           true,
	})
	d.Evaluate(quote("TSLL", 1))
	if len(n.sent) != 0 {
		t.Error("non-positive base price must silently disable alerting")
	}

	c.advance(time.Minute)
	if err := store.SaveRule(d.Store, store.AlertRule{
		Symbol: "TSLL", BasePrice: 100, ThresholdPercents: []float64{7}, Enabled: false,
	}); err != nil {
		t.Fatal(err)
	}
	d.Evaluate(quote("TSLL", 1))
	if len(n.sent) != 0 {
		t.Error("disabled rule must not alert")
	}

	c.advance(time.Minute)
	d.Evaluate(quote("UNKNOWN", 1))
	if len(n.sent) != 0 {
		t.Error("missing rule must not alert")
	}
}

func TestEvaluate_NoBreachNoAlert(t *testing.T) {
	d, n, _ := newTestDispatcher(t, store.AlertRule{
		Symbol:            "VOO",
		BasePrice:         100,
		ThresholdPercents: []float64{7},
		Enabled:           true,
	})
	d.Evaluate(quote("VOO", 95)) // above the 93 target
	if len(n.sent) != 0 {
		t.Error("price above target must not alert")
	}
}
