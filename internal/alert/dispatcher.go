package alert

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/store"
)

// DefaultDebounce caps how often a single ticker is evaluated,
// independent of the polling cadence.
const DefaultDebounce = 30 * time.Second

// Dispatcher evaluates quotes against user-configured threshold rules and
// emits deduplicated notifications. Each (ticker, level, calendar day)
// fires at most once; a new day implicitly resets eligibility.
type Dispatcher struct {
	Store    store.Store
	Notifier notifier.Notifier
	Debounce time.Duration

	// Now is the wall clock, replaceable in tests.
	Now func() time.Time

	mu        sync.Mutex
	lastCheck map[string]time.Time
}

func NewDispatcher(s store.Store, n notifier.Notifier) *Dispatcher {
	return &Dispatcher{
		Store:     s,
		Notifier:  n,
		Debounce:  DefaultDebounce,
		Now:       time.Now,
		lastCheck: make(map[string]time.Time),
	}
}

// Evaluate checks one ticker's latest quote against its rule. Invalid or
// absent configuration silently disables alerting for the ticker.
func (d *Dispatcher) Evaluate(q model.Quote) {
	if q.Price <= 0 {
		return
	}
	if !d.debounceOK(q.Symbol) {
		return
	}

	rule, ok, err := store.LoadRule(d.Store, q.Symbol)
	if err != nil {
		log.Printf("[WARN] load alert rule %s: %v", q.Symbol, err)
		return
	}
	if !ok || !rule.Enabled || rule.BasePrice <= 0 {
		return
	}

	day := d.Now().Format("2006-01-02")

	// Deepest discount first, so the most significant breach of a cycle
	// is reported before shallower ones.
	for _, lvl := range levelsByDepth(rule.ThresholdPercents) {
		target := rule.BasePrice * (1 - lvl.pct/100)
		if q.Price > target {
			continue
		}

		key := sentKey(q.Symbol, lvl.index, day)
		if _, sent, err := d.Store.Get(key); err != nil {
			log.Printf("[WARN] check alert marker %s: %v", key, err)
			continue
		} else if sent {
			continue
		}

		belowPct := (rule.BasePrice - q.Price) / rule.BasePrice * 100
		label := fmt.Sprintf("entry %d, -%g%%", lvl.index, lvl.pct)
		msg := notifier.FormatThresholdAlert(q.Symbol, q.Price, target, belowPct, label)

		// Fire-and-forget: delivery failure is logged, never retried,
		// and the marker is still written so we do not spam on flaky
		// transport.
		if err := d.Notifier.Send(msg); err != nil {
			log.Printf("[ERROR] dispatch alert %s level %d: %v", q.Symbol, lvl.index, err)
		} else {
			log.Printf("[INFO] alert dispatched: %s level %d at %.2f", q.Symbol, lvl.index, q.Price)
		}
		if err := d.Store.Set(key, "1"); err != nil {
			log.Printf("[WARN] write alert marker %s: %v", key, err)
		}
	}
}

// debounceOK reports whether enough time passed since the ticker's last
// evaluation, and records the new check instant when it did.
func (d *Dispatcher) debounceOK(symbol string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.Now()
	if last, ok := d.lastCheck[symbol]; ok && now.Sub(last) < d.Debounce {
		return false
	}
	d.lastCheck[symbol] = now
	return true
}

type level struct {
	index int // 1-based position in the configured rule
	pct   float64
}

func levelsByDepth(percents []float64) []level {
	levels := make([]level, len(percents))
	for i, pct := range percents {
		levels[i] = level{index: i + 1, pct: pct}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].pct > levels[j].pct })
	return levels
}

func sentKey(symbol string, index int, day string) string {
	return fmt.Sprintf("alert_sent_%s_L%d_%s", symbol, index, day)
}
