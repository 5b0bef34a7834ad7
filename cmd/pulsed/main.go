package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketPulse/internal/alert"
	"MarketPulse/internal/cache"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
	"MarketPulse/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketPulse starting...")

	// Local .env, if present
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init KV store
	var kv store.Store
	if cfg.Database.SQLitePath != "" {
		sq, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using in-memory: %v", err)
			kv = store.NewMemoryStore()
		} else {
			kv = sq
			defer sq.Close()
		}
	} else {
		kv = store.NewMemoryStore()
	}

	// Init fetch sources
	primary := collector.NewYahooFetcher(cfg.Proxy)
	batch := collector.NewFMPFetcher(cfg.DataSource.FMPAPIKey, cfg.Proxy)
	if batch.Enabled() {
		log.Println("[INFO] batch source enabled: fmp")
	} else {
		log.Println("[INFO] batch source disabled: no API key")
	}

	// Init cache and collector
	quotes := cache.New()
	col := collector.NewCollector(primary, batch, quotes, cfg.Instruments, cfg.Polling.ChunkSize, cfg.Location())

	// Init Telegram notifier and alert dispatcher
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if !tn.Configured() {
		log.Println("[INFO] Telegram not configured, alerts are no-ops")
	}
	dispatcher := alert.NewDispatcher(kv, tn)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, quotes, dispatcher, tn,
		time.Duration(cfg.Polling.RegularInterval), time.Duration(cfg.Polling.ExtendedInterval))
	if err := sched.RegisterDigest(cfg.Schedule.DigestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go sched.RunPolling()
	go tn.StartPolling(ctx, sched.HandleCommand)

	// Read-only HTTP API over cache snapshots
	gin.SetMode(gin.ReleaseMode)
	api := server.New(quotes, cfg.Instruments)
	httpSrv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: api.Router(),
	}
	go func() {
		log.Printf("[INFO] http api listening on %s", cfg.Server.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] MarketPulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}

	log.Println("[INFO] MarketPulse stopped")
}
