package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"profitscout/internal/adapters/clickhouse"
	"profitscout/internal/adapters/config"
	"profitscout/internal/adapters/errors/noop"
	"profitscout/internal/adapters/errors/sentry"
	"profitscout/internal/adapters/kafka"
	"profitscout/internal/adapters/postgres"
	"profitscout/internal/adapters/redis"
	"profitscout/internal/events"
	"profitscout/internal/metrics"
	chrepo "profitscout/internal/repository/clickhouse"
	pgrepo "profitscout/internal/repository/postgres"
	featuresvc "profitscout/internal/services/features"
	"profitscout/internal/services/pricecache"
	"profitscout/internal/services/selector"
	"profitscout/internal/services/structure"
	"profitscout/internal/workers"
	"profitscout/internal/workers/enrichment"
	"profitscout/internal/workers/selection"
	"profitscout/pkg/errors"
	"profitscout/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Stores
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, price caching disabled: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repositories
	chains := chrepo.NewChainRepository(chClient.Conn())
	prices := chrepo.NewPriceRepository(chClient.Conn())
	candidates := pgrepo.NewCandidateRepository(pgClient.DB())
	feats := pgrepo.NewFeaturesRepository(pgClient.DB())

	// Events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer)
		log.Info("Kafka event publishing enabled")
	}

	// Services
	priceCache := pricecache.New(prices, redisClient, 0)
	sel := selector.New(selectorConfig(cfg.Selector))
	universe := selection.NewStaticUniverse(cfg.Universe.Tickers)

	// Workers
	selectionWorker := selection.NewWorker(selection.Deps{
		Chains:     chains,
		Prices:     priceCache,
		Candidates: candidates,
		Universe:   universe,
		Selector:   sel,
		Publisher:  publisher,
	}, cfg.Workers.SelectionInterval, cfg.Workers.MaxConcurrency, cfg.Workers.SelectionEnabled)

	enrichmentWorker := enrichment.NewWorker(enrichment.Deps{
		Chains:     chains,
		Prices:     prices,
		Candidates: candidates,
		Features:   feats,
		Universe:   universe,
		Analyzer:   structure.NewAnalyzer(),
		Calculator: featuresvc.NewCalculator(),
		Publisher:  publisher,
	}, cfg.Workers.EnrichmentInterval, cfg.Features.PriceWindowDays, cfg.Workers.MaxConcurrency, cfg.Workers.EnrichmentEnabled)

	scheduler := workers.NewScheduler(workers.DefaultShutdownTimeout)
	scheduler.Register(selectionWorker)
	scheduler.Register(enrichmentWorker)

	// Metrics
	if cfg.Metrics.Enabled {
		metrics.Register()
		metricsServer := metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			log.Infof("Metrics server listening on %s", cfg.Metrics.Addr)
			if err := metricsServer.Start(); err != nil {
				log.Warnf("Metrics server stopped: %v", err)
			}
		}()
		defer metricsServer.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	log.Info("System initialized successfully")

	waitForShutdown(cancel, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// selectorConfig maps environment configuration onto selector thresholds
func selectorConfig(cfg config.SelectorConfig) selector.Config {
	return selector.Config{
		MinDTE:                    cfg.MinDTE,
		MaxDTE:                    cfg.MaxDTE,
		MinMoneyness:              cfg.MinMoneyness,
		MaxMoneyness:              cfg.MaxMoneyness,
		MinOpenInterest:           cfg.MinOpenInterest,
		MinVolume:                 cfg.MinVolume,
		MaxSpreadPct:              cfg.MaxSpreadPct,
		MinMidPrice:               cfg.MinMidPrice,
		MinAbsDelta:               cfg.MinAbsDelta,
		MaxAbsDelta:               cfg.MaxAbsDelta,
		ExpectedMoveHaircut:       cfg.ExpectedMoveHaircut,
		MaxCandidatesPerPartition: cfg.MaxCandidatesPerPartition,
	}
}

// waitForShutdown blocks until a termination signal, then drains workers and
// flushes the error tracker
func waitForShutdown(cancel context.CancelFunc, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	errorTracker.Flush(context.Background())
	log.Info("Shutdown complete")
}
