package collector

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"MarketPulse/internal/model"
)

// referencePrices anchors the synthetic walk for well-known symbols when
// no history was ever learned. Unknown symbols start at 100.
var referencePrices = map[string]float64{
	"005930.KS": 55000,
	"NVDA":      130,
	"AAPL":      185,
	"MSFT":      410,
	"GOOGL":     175,
	"TSLA":      250,
	"AMD":       110,
	"VOO":       540,
	"QQQM":      210,
	"SOXX":      240,
	"TLT":       88,
	"SGOV":      100.5,
	"SOXL":      64.03,
	"TQQQ":      52.02,
	"NVDL":      88.97,
	"TSLL":      15.97,
}

const simHistoryLen = 30

// Simulator synthesizes quotes via a seeded random walk so a full source
// outage still yields renderable, reproducible data.
type Simulator struct {
	mu    sync.Mutex
	cycle uint64
}

func NewSimulator() *Simulator { return &Simulator{} }

// Quote produces the next synthetic quote for a symbol, advancing the
// given history (seeding a fresh one when empty). The walk is seeded from
// the symbol, the calendar day, and the outage cycle counter, so a given
// outage replays identically.
func (s *Simulator) Quote(symbol string, history []float64, now time.Time) *RawQuote {
	s.mu.Lock()
	cycle := s.cycle
	s.cycle++
	s.mu.Unlock()

	rng := rand.New(rand.NewSource(seed(symbol, now, cycle)))

	base := referencePrices[symbol]
	if base == 0 {
		base = 100
	}

	if len(history) == 0 {
		history = seedHistory(base, rng)
	}

	last := history[len(history)-1]
	next := last + last*(rng.Float64()-0.5)*0.005

	walked := append(history[1:len(history):len(history)], next)

	return &RawQuote{
		Symbol:    symbol,
		Price:     next,
		PrevClose: base,
		History:   walked,
		Source:    model.SourceSimulation,
	}
}

func seedHistory(base float64, rng *rand.Rand) []float64 {
	history := make([]float64, simHistoryLen)
	history[0] = base + (rng.Float64()-0.5)*base*0.05
	for i := 1; i < simHistoryLen; i++ {
		prev := history[i-1]
		history[i] = prev + prev*(rng.Float64()-0.5)*0.02
	}
	return history
}

func seed(symbol string, now time.Time, cycle uint64) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte(now.Format("2006-01-02")))
	return int64(h.Sum64() ^ cycle)
}
