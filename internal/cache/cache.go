package cache

import (
	"math"
	"sync"
	"time"

	"MarketPulse/internal/model"
)

// minHistoryLen is the smallest series worth keeping: anything shorter
// cannot feed the 20-period moving average, so a thin fetch never
// overwrites previously learned history.
const minHistoryLen = 20

// Cache is the process-wide store of latest quotes and rolling price
// history. The collector is the only writer; every read path receives
// copies, never live references.
type Cache struct {
	mu         sync.RWMutex
	quotes     map[string]*model.Quote
	history    map[string][]float64
	simulation bool
	lastFetch  time.Time
}

func New() *Cache {
	return &Cache{
		quotes:  make(map[string]*model.Quote),
		history: make(map[string][]float64),
	}
}

// Apply stores a freshly normalized quote. When the new quote is
// field-equal to the cached one (price to the cent, session, baseline)
// the old record is kept as-is and false is returned, so downstream
// consumers are not poked for a no-op refresh.
func (c *Cache) Apply(q *model.Quote) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.quotes[q.Symbol]
	if ok &&
		cents(old.Price) == cents(q.Price) &&
		old.Session == q.Session &&
		cents(old.LastCompletedClose) == cents(q.LastCompletedClose) {
		return false
	}
	c.quotes[q.Symbol] = q
	return true
}

// MergeHistory replaces the stored series for a symbol only when the
// incoming series is authoritative (>= 20 points). It returns the series
// that is authoritative after the merge, which may be the previously
// stored one.
func (c *Cache) MergeHistory(symbol string, closes []float64) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(closes) >= minHistoryLen {
		stored := make([]float64, len(closes))
		copy(stored, closes)
		c.history[symbol] = stored
	}
	return copySeries(c.history[symbol])
}

// History returns a copy of the stored series for a symbol.
func (c *Cache) History(symbol string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copySeries(c.history[symbol])
}

// Get returns a copy of the cached quote for a symbol.
func (c *Cache) Get(symbol string) (model.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	if !ok {
		return model.Quote{}, false
	}
	return copyQuote(q), true
}

// Snapshot returns a deep copy of every cached quote.
func (c *Cache) Snapshot() map[string]model.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]model.Quote, len(c.quotes))
	for sym, q := range c.quotes {
		snap[sym] = copyQuote(q)
	}
	return snap
}

// Len reports how many symbols currently have a cached quote.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}

// SetSimulation flips the process-wide degraded-mode flag.
func (c *Cache) SetSimulation(on bool) {
	c.mu.Lock()
	c.simulation = on
	c.mu.Unlock()
}

// Simulation reports whether the last cycle fell back to synthetic data.
func (c *Cache) Simulation() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.simulation
}

// MarkFetched records the instant of the last cycle with at least one
// real (non-simulated) success.
func (c *Cache) MarkFetched(t time.Time) {
	c.mu.Lock()
	c.lastFetch = t
	c.mu.Unlock()
}

// LastFetch returns the instant of the last successful real fetch.
func (c *Cache) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func copySeries(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

func copyQuote(q *model.Quote) model.Quote {
	out := *q
	if q.MA20 != nil {
		v := *q.MA20
		out.MA20 = &v
	}
	if q.RSI14 != nil {
		v := *q.RSI14
		out.RSI14 = &v
	}
	out.History = copySeries(q.History)
	return out
}
