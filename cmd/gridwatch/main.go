package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/stock_grid/internal/config"
	"github.com/vitos/stock_grid/internal/domain"
	"github.com/vitos/stock_grid/internal/infrastructure/logger"
	"github.com/vitos/stock_grid/internal/infrastructure/news"
	"github.com/vitos/stock_grid/internal/infrastructure/notify"
	"github.com/vitos/stock_grid/internal/infrastructure/quote"
	"github.com/vitos/stock_grid/internal/infrastructure/storage"
	"github.com/vitos/stock_grid/internal/usecase"
	"github.com/vitos/stock_grid/internal/web"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default config/config.yaml when present)")
	flag.Parse()

	// 1. Load Config
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Init Storage
	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Quote Source
	yahoo := quote.NewYahooAdapter(cfg.Quote.BaseURL, cfg.Quote.Timeout(), cfg.Quote.Retries)
	var cache quote.Store = quote.NewMemoryStore()
	if cfg.Quote.RedisAddr != "" {
		rs, err := quote.NewRedisStore(ctx, cfg.Quote.RedisAddr, cfg.Quote.RedisPassword, cfg.Quote.RedisDB)
		if err != nil {
			log.Warn("Redis unavailable, using in-process quote cache", zap.String("addr", cfg.Quote.RedisAddr), zap.Error(err))
		} else {
			defer rs.Close()
			cache = rs
		}
	}
	quotes := quote.NewCachedSource(yahoo, cache, cfg.Quote.QuoteTTL(), cfg.Quote.HistoryTTL(), log)

	// 5. Init Notifier
	notifier, err := newNotifier(cfg.Notify, log)
	if err != nil {
		log.Fatal("Failed to init notifier", zap.Error(err))
	}

	// 6. Init Services
	fees, err := usecase.FeeScheduleFor(cfg.Fees.TaxRegime)
	if err != nil {
		log.Fatal("Invalid fee schedule", zap.Error(err))
	}
	engine, err := usecase.NewGridPlanEngine(fees)
	if err != nil {
		log.Fatal("Failed to init grid engine", zap.Error(err))
	}

	plans := usecase.NewPlanService(store, quotes, notifier, usecase.NewTierPolicy(cfg.Users), engine, log)
	plans.SetMaxParallel(cfg.Watch.MaxParallel)
	if cfg.Notify.AutoNotify {
		plans.SetAlertRecipient(cfg.Notify.AlertRecipient)
	}
	portfolio := usecase.NewPortfolioService(store, quotes, log)
	market := usecase.NewMarketService(quotes, log)
	market.SetMaxParallel(cfg.Watch.MaxParallel)
	feed := news.NewGoogleNewsFeed(cfg.Quote.NewsBaseURL, cfg.Quote.Timeout(), cfg.Quote.Retries)
	market.SetNewsSource(quote.NewCachedNews(feed, cache, cfg.Quote.NewsTTL(), log))

	hub := web.NewHub(log)

	// 7. Refresh Loop
	go func() {
		ticker := time.NewTicker(cfg.Watch.Refresh())
		defer ticker.Stop()

		for {
			results, err := plans.Refresh(ctx)
			if err != nil {
				log.Error("Refresh failed", zap.Error(err))
			} else {
				hub.PublishEvaluations(results)
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	// 8. Start Server
	server := web.NewServer(cfg.Server.Port, plans, portfolio, market, hub, cfg.Watch.ScanList, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("gridwatch started",
		zap.Int("port", cfg.Server.Port),
		zap.String("tax_regime", cfg.Fees.TaxRegime),
		zap.String("notify", cfg.Notify.Channel),
		zap.Duration("refresh", cfg.Watch.Refresh()),
	)

	// 9. Wait for Shutdown
	<-ctx.Done()

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}

func newNotifier(cfg config.Notify, log *zap.Logger) (domain.Notifier, error) {
	switch cfg.Channel {
	case "line":
		return notify.NewLineNotifier(cfg.LineBaseURL, cfg.LineToken), nil
	case "telegram":
		n, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramEndpoint)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return notify.NewLogNotifier(log), nil
	}
}
