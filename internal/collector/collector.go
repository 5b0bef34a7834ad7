package collector

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/indicator"
	"MarketPulse/internal/model"
)

// SessionKind selects the source cascade and the next polling interval.
type SessionKind int

const (
	SessionRegular SessionKind = iota
	SessionExtended
)

func (k SessionKind) String() string {
	if k == SessionRegular {
		return "REGULAR"
	}
	return "EXTENDED"
}

const fetchTimeout = 4 * time.Second

// Collector drives one polling cycle: source cascade, normalization,
// history merge, indicator computation, and cache publication. It is the
// sole writer of the quote cache.
type Collector struct {
	Primary     Fetcher
	Batch       BatchFetcher
	Sim         *Simulator
	Cache       *cache.Cache
	Instruments []model.Instrument
	ChunkSize   int
	Location    *time.Location

	// Now is the wall clock, replaceable in tests.
	Now func() time.Time
}

// NewCollector wires an orchestrator over the given sources and cache.
// The location is the reference timezone for the market session window.
func NewCollector(primary Fetcher, batch BatchFetcher, c *cache.Cache, instruments []model.Instrument, chunkSize int, loc *time.Location) *Collector {
	if chunkSize <= 0 {
		chunkSize = 10
	}
	return &Collector{
		Primary:     primary,
		Batch:       batch,
		Sim:         NewSimulator(),
		Cache:       c,
		Instruments: instruments,
		ChunkSize:   chunkSize,
		Location:    loc,
		Now:         time.Now,
	}
}

// SessionKind reports whether the reference market is currently in its
// regular session (23:30-06:00 in the reference zone) or extended hours.
func (c *Collector) SessionKind() SessionKind {
	now := c.Now().In(c.Location)
	h, m := now.Hour(), now.Minute()
	if h == 23 && m >= 30 {
		return SessionRegular
	}
	if h < 6 {
		return SessionRegular
	}
	return SessionExtended
}

// RunCycle executes one full fetch cycle and returns the session kind so
// the poll loop can adapt its interval for the next firing.
func (c *Collector) RunCycle(ctx context.Context) SessionKind {
	kind := c.SessionKind()
	success := 0

	if kind == SessionRegular {
		var failed []string
		for _, chunk := range c.chunks() {
			ok, bad := c.fetchChunk(ctx, chunk, kind)
			success += ok
			failed = append(failed, bad...)
		}
		// Tickers the primary source could not resolve get one batch
		// re-attempt; nothing beyond that, failures degrade gracefully.
		success += c.fetchViaBatch(ctx, failed, kind)
	} else {
		batched := 0
		if c.Batch != nil && c.Batch.Enabled() {
			batched = c.fetchViaBatch(ctx, c.symbols(), kind)
		}
		success += batched
		if batched == 0 {
			for _, chunk := range c.chunks() {
				ok, _ := c.fetchChunk(ctx, chunk, kind)
				success += ok
			}
		}
	}

	if success == 0 {
		c.simulateAll(kind)
		c.Cache.SetSimulation(true)
		log.Printf("[WARN] cycle produced no real data, serving simulated quotes")
	} else {
		c.Cache.SetSimulation(false)
		c.Cache.MarkFetched(c.Now())
	}
	return kind
}

// fetchChunk resolves one chunk of symbols concurrently against the
// primary source and publishes each success immediately. It returns the
// success count and the symbols that still failed.
func (c *Collector) fetchChunk(ctx context.Context, symbols []string, kind SessionKind) (int, []string) {
	results := make([]*RawQuote, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			raw, err := c.Primary.FetchQuote(fctx, symbol)
			if err != nil {
				log.Printf("[WARN] %s fetch %s: %v", c.Primary.Name(), symbol, err)
				return
			}
			results[i] = raw
		}(i, symbol)
	}
	wg.Wait()

	success := 0
	var failed []string
	for i, raw := range results {
		if raw == nil || raw.Price == 0 {
			failed = append(failed, symbols[i])
			continue
		}
		c.publish(raw, kind)
		success++
	}
	return success, failed
}

// fetchViaBatch resolves symbols through the batch source, if configured.
func (c *Collector) fetchViaBatch(ctx context.Context, symbols []string, kind SessionKind) int {
	if len(symbols) == 0 || c.Batch == nil || !c.Batch.Enabled() {
		return 0
	}
	bctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	quotes, err := c.Batch.FetchBatch(bctx, symbols)
	if err != nil {
		log.Printf("[WARN] %s batch fetch: %v", c.Batch.Name(), err)
		return 0
	}
	for i := range quotes {
		c.publish(&quotes[i], kind)
	}
	return len(quotes)
}

// publish merges history, normalizes the raw result, and applies it to
// the cache.
func (c *Collector) publish(raw *RawQuote, kind SessionKind) bool {
	history := c.Cache.MergeHistory(raw.Symbol, raw.History)
	return c.Cache.Apply(c.normalize(raw, history, kind))
}

// normalize derives change fields against the last fully-closed price
// (falling back to the source-reported previous close), classifies the
// market session, and recomputes indicators from the authoritative
// history.
func (c *Collector) normalize(raw *RawQuote, history []float64, kind SessionKind) *model.Quote {
	lastCompleted := raw.PrevClose
	if len(history) >= 2 {
		lastCompleted = history[len(history)-2]
	}
	baseline := lastCompleted
	if baseline == 0 {
		baseline = raw.Price
	}

	change := raw.Price - baseline
	changePercent := 0.0
	if baseline != 0 {
		changePercent = change / baseline * 100
	}

	q := &model.Quote{
		Symbol:             raw.Symbol,
		Price:              raw.Price,
		Change:             change,
		ChangePercent:      changePercent,
		PrevClose:          raw.PrevClose,
		LastCompletedClose: lastCompleted,
		Session:            classifySession(raw, kind),
		Source:             raw.Source,
		Timestamp:          c.Now(),
		History:            history,
	}

	if ma, ok := indicator.MovingAverage(history, 20); ok {
		q.MA20 = &ma
	}
	if rsi, ok := indicator.RSI(history, 14); ok {
		rounded := int(math.Round(rsi))
		q.RSI14 = &rounded
	}
	return q
}

// classifySession maps the upstream session label onto the model enum.
// Batch records carry no session state, so they take the cycle's kind: a
// ticker recovered via the batch retry during the regular window is still
// a live quote. KRX listings reporting REGULAR outside the reference
// window with no pre/post prices are forced to CLOSED: those markets have
// no modeled extended session and the upstream label is known to be wrong
// there.
func classifySession(raw *RawQuote, kind SessionKind) model.MarketSession {
	switch raw.Source {
	case model.SourceSimulation:
		return model.SessionSimulated
	case model.SourceBatch:
		if kind == SessionRegular {
			return model.SessionLive
		}
		return model.SessionExtended
	}
	switch raw.MarketState {
	case "REGULAR":
		if model.IsKoreanListing(raw.Symbol) && kind == SessionExtended &&
			raw.PreMarketPrice == nil && raw.PostMarketPrice == nil {
			return model.SessionClosed
		}
		return model.SessionLive
	case "PRE":
		return model.SessionPre
	case "POST":
		return model.SessionPost
	case "CLOSED":
		return model.SessionClosed
	default:
		return model.SessionExtended
	}
}

// simulateAll fills the cache with synthetic quotes for every instrument,
// anchored to learned history where available.
func (c *Collector) simulateAll(kind SessionKind) {
	now := c.Now()
	for _, inst := range c.Instruments {
		c.publish(c.Sim.Quote(inst.Symbol, c.Cache.History(inst.Symbol), now), kind)
	}
}

func (c *Collector) symbols() []string {
	out := make([]string, len(c.Instruments))
	for i, inst := range c.Instruments {
		out[i] = inst.Symbol
	}
	return out
}

func (c *Collector) chunks() [][]string {
	symbols := c.symbols()
	var out [][]string
	for start := 0; start < len(symbols); start += c.ChunkSize {
		end := start + c.ChunkSize
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}
