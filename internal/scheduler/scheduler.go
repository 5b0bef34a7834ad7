package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"MarketPulse/internal/alert"
	"MarketPulse/internal/cache"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/strategy"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the adaptive polling loop and the calendar jobs. At most
// one polling cycle is active at a time: a cycle that would overlap a slow
// predecessor is skipped, never queued.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Cache      *cache.Cache
	Dispatcher *alert.Dispatcher
	Notifier   *notifier.TelegramNotifier

	RegularInterval  time.Duration
	ExtendedInterval time.Duration

	ctx     context.Context
	running atomic.Bool

	mu       sync.Mutex
	interval time.Duration
}

// NewScheduler creates a scheduler over the collector and alert pipeline.
func NewScheduler(ctx context.Context, col *collector.Collector, c *cache.Cache, d *alert.Dispatcher, tn *notifier.TelegramNotifier, regular, extended time.Duration) *Scheduler {
	return &Scheduler{
		Cron:             cron.New(cron.WithSeconds()),
		Collector:        col,
		Cache:            c,
		Dispatcher:       d,
		Notifier:         tn,
		RegularInterval:  regular,
		ExtendedInterval: extended,
		ctx:              ctx,
		interval:         extended,
	}
}

// RegisterDigest schedules the daily signal digest.
func (s *Scheduler) RegisterDigest(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.sendDigest); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunPolling drives the recurring fetch cycle until the context is
// cancelled. The first cycle fires immediately; each cycle selects the
// interval for the next firing based on the market session it observed.
func (s *Scheduler) RunPolling() {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("[INFO] polling loop stopped")
			return
		case <-timer.C:
			s.RunCycleNow()
			timer.Reset(s.CurrentInterval())
		}
	}
}

// RunCycleNow executes one cycle unless another is still in flight.
func (s *Scheduler) RunCycleNow() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("[WARN] previous cycle still running, skipping")
		return
	}
	defer s.running.Store(false)

	kind := s.Collector.RunCycle(s.ctx)

	next := s.ExtendedInterval
	if kind == collector.SessionRegular {
		next = s.RegularInterval
	}
	s.setInterval(next)

	// Alert evaluation reads the published snapshot; its own debounce
	// keeps it independent of the polling cadence.
	for _, q := range s.Cache.Snapshot() {
		s.Dispatcher.Evaluate(q)
	}
}

// CurrentInterval returns the interval the next cycle will fire on.
func (s *Scheduler) CurrentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) setInterval(next time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval != next {
		log.Printf("[INFO] polling interval switched to %s", next)
		s.interval = next
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/quotes":
		return notifier.FormatQuotes(s.Cache.Snapshot())
	case "/status":
		return notifier.FormatStatus(s.Cache.Len(), s.Cache.Simulation(), s.Cache.LastFetch(), s.CurrentInterval())
	case "/digest":
		s.sendDigest()
		return ""
	default:
		return "Available commands:\n• /quotes\n• /status\n• /digest"
	}
}

func (s *Scheduler) sendDigest() {
	quotes := s.Cache.Snapshot()
	signals := make(map[string]model.Signal, len(quotes))
	for _, inst := range s.Collector.Instruments {
		if q, ok := quotes[inst.Symbol]; ok {
			signals[inst.Symbol] = strategy.ClassifyQuote(&q, inst.Class)
		}
	}
	report := notifier.FormatDigest(s.Collector.Instruments, quotes, signals, s.Cache.Simulation())
	s.trySend(report)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
