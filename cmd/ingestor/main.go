package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/kjannette/marketpulse/internal/api"
	"github.com/kjannette/marketpulse/internal/config"
	"github.com/kjannette/marketpulse/internal/db"
	"github.com/kjannette/marketpulse/internal/external"
	"github.com/kjannette/marketpulse/internal/httputil"
	"github.com/kjannette/marketpulse/internal/ingest"
	"github.com/kjannette/marketpulse/internal/logger"
	"github.com/kjannette/marketpulse/internal/metrics"
	"github.com/kjannette/marketpulse/internal/models"
	"github.com/kjannette/marketpulse/internal/notifications"
	"github.com/kjannette/marketpulse/internal/repository"
	"github.com/kjannette/marketpulse/internal/retry"
	"github.com/kjannette/marketpulse/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║     MarketPulse Ingestor v0.1        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Output:     cfg.LogOutput,
		TimeFormat: cfg.LogTimeFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	cfg.Print(log)
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("ingestor stopped with error")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pc := db.DefaultPool
	pc.MaxConns = int32(cfg.DBMaxConns)
	pool, err := db.Connect(ctx, cfg.DSN(), pc)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer func() {
		pool.Close()
		log.Info().Msg("database pool closed")
	}()

	dbLog := logger.Component(log, "db")
	if err := db.TestConnection(ctx, pool, dbLog); err != nil {
		return fmt.Errorf("database test query: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("database migrate: %w", err)
	}

	// Sources share one HTTP client and its rate limiter
	hc := httputil.NewClient(
		httputil.WithTimeout(cfg.HTTPTimeout),
		httputil.WithRateLimit(cfg.SourceRateLimit),
		httputil.WithLogger(logger.Component(log, "http")),
	)
	fred := external.NewFREDClient(hc, cfg.FREDAPIKey)
	sources := ingest.DailySources{
		Sentiment: external.NewFearGreedClient(hc),
		Series:    fred,
		Prices:    external.NewYahooClient(hc),
		Aggregate: external.NewCoinMarketCapClient(hc),
	}

	store := repository.NewPgStore(pool)
	rec := metrics.New(prometheus.DefaultRegisterer)
	notify := notifications.NewSender(cfg.WebhookURL, cfg.NotifyName, nil, logger.Component(log, "notify"))

	policy, err := retry.NewPolicy(cfg.RetryMaxAttempts, cfg.RetryDelay)
	if err != nil {
		return err
	}

	var workers []api.WorkerStatus
	var runners []func(context.Context) error

	dailyLog := logger.Component(log, "daily")
	daily := ingest.NewWorker[*ingest.DailyResult](
		ingest.NewDailyJob(sources, cfg.FREDSeries, models.ParseSymbols(cfg.Assets), store,
			ingest.WithLogger(dailyLog), ingest.WithMetrics(rec)),
		scheduler.NewFixedInterval(cfg.DailyInterval, dailyLog),
		policy,
		ingest.WithLogger(dailyLog), ingest.WithMetrics(rec), ingest.WithNotifier(notify),
	)
	workers = append(workers, daily)
	runners = append(runners, daily.Run)

	if cfg.MonthlyEnabled {
		monthlyLog := logger.Component(log, "monthly")
		var sched scheduler.Scheduler = scheduler.NewMonthlyBoundary(monthlyLog)
		if cfg.MonthlySchedule != "" {
			c, err := scheduler.NewCron(cfg.MonthlySchedule, monthlyLog)
			if err != nil {
				return fmt.Errorf("monthly schedule: %w", err)
			}
			sched = c
		}
		monthly := ingest.NewWorker[*ingest.MonthlyResult](
			ingest.NewMonthlyJob(fred, models.M2Metrics(), store,
				ingest.WithLogger(monthlyLog), ingest.WithMetrics(rec)),
			sched,
			policy,
			ingest.WithLogger(monthlyLog), ingest.WithMetrics(rec), ingest.WithNotifier(notify),
		)
		workers = append(workers, monthly)
		runners = append(runners, monthly.Run)
	} else {
		log.Info().Msg("monthly worker disabled")
	}

	// API server
	var srv *api.Server
	if cfg.APIEnabled {
		srv = api.NewServer(api.Deps{
			Data:     repository.NewMarketDataRepo(pool),
			Metrics:  repository.NewMarketMetricRepo(pool),
			DB:       pool,
			Gatherer: prometheus.DefaultGatherer,
			Workers:  workers,
			Log:      logger.Component(log, "api"),
		}, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("API server error")
				stop()
			}
		}()
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r(ctx); err != nil {
				log.Error().Err(err).Msg("worker exited")
			}
		}()
	}

	log.Info().Int("workers", len(runners)).Msg("all services started")

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	wg.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API shutdown error")
		}
		log.Info().Msg("API server closed")
	}

	log.Info().Msg("shutdown complete")
	return nil
}
