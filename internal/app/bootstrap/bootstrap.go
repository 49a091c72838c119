package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	bountyengine "nearshield/contexts/bounty-escrow/bounty-engine"
	postgresadapter "nearshield/contexts/bounty-escrow/bounty-engine/adapters/postgres"
	"nearshield/contexts/bounty-escrow/bounty-engine/adapters/relayer"
	"nearshield/contexts/bounty-escrow/bounty-engine/adapters/s3archive"
	workerapp "nearshield/contexts/bounty-escrow/bounty-engine/application/workers"
	"nearshield/contexts/bounty-escrow/bounty-engine/domain/entities"
	"nearshield/contexts/bounty-escrow/bounty-engine/ports"
	contractsv1 "nearshield/contracts/gen/events/v1"
	"nearshield/internal/platform/config"
	"nearshield/internal/platform/db"
	"nearshield/internal/platform/httpserver"
	"nearshield/internal/platform/messaging"
	"nearshield/internal/platform/metrics"

	"github.com/go-co-op/gocron/v2"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	workers  *WorkerApp
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres  *db.Postgres
	jobs      []job
	consumers []consumer
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// consumer attaches bus subscribers for the lifetime of ctx.
type consumer struct {
	name      string
	subscribe func(ctx context.Context) error
}

// job is one relay scheduled on a fixed interval.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// outboxes is what the relays need from a store.
type outboxes struct {
	transfers ports.TransferOutbox
	events    ports.EventOutbox
	clock     ports.Clock
	ids       ports.IDGenerator
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	promMetrics := metrics.New(metricsPrefix(cfg.ServiceName))

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		// Single-process mode: relays must share the in-memory store.
		module := bountyengine.NewInMemoryModule(
			entities.NewContractState(cfg.Admin, cfg.Treasury),
			cfg.TrustedTokens,
			promMetrics,
			logger,
		)
		workers, err := buildWorkerApp(context.Background(), cfg, outboxes{
			transfers: module.Store,
			events:    module.Store,
			clock:     module.Store,
			ids:       module.Store,
		}, promMetrics, logger)
		if err != nil {
			return nil, err
		}
		logger.Warn("POSTGRES_DSN not set, using in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return &APIApp{
			server:  httpserver.New(module, promMetrics.Handler(), logger, normalizeAddr(cfg.HTTPPort)),
			workers: workers,
			logger:  logger,
		}, nil
	}

	pg, repo, err := connectStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	module := bountyengine.NewModule(bountyengine.Dependencies{
		Store:         repo,
		Clock:         postgresadapter.SystemClock{},
		IDGenerator:   postgresadapter.UUIDGenerator{},
		Metrics:       promMetrics,
		TrustedTokens: cfg.TrustedTokens,
		Logger:        logger,
	})
	return &APIApp{
		server:   httpserver.New(module, promMetrics.Handler(), logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, repo, err := connectStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app, err := buildWorkerApp(context.Background(), cfg, outboxes{
		transfers: repo,
		events:    repo,
		clock:     postgresadapter.SystemClock{},
		ids:       postgresadapter.UUIDGenerator{},
	}, metrics.New(metricsPrefix(cfg.ServiceName)), logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	app.postgres = pg
	return app, nil
}

func connectStore(cfg config.Config, logger *slog.Logger) (*db.Postgres, *postgresadapter.Repository, error) {
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.AutoMigrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	if err := repo.EnsureState(ctx, cfg.Admin, cfg.Treasury); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("seed contract state: %w", err)
	}
	return pg, repo, nil
}

func buildWorkerApp(
	ctx context.Context,
	cfg config.Config,
	store outboxes,
	promMetrics ports.Metrics,
	logger *slog.Logger,
) (*WorkerApp, error) {
	app := &WorkerApp{logger: logger}

	if cfg.EnableTransferRelay {
		if cfg.RelayerURL == "" {
			logger.Warn("RELAYER_URL not set, transfer relay disabled",
				"event", "bootstrap_transfer_relay_disabled",
				"module", "internal/app/bootstrap",
				"layer", "platform",
			)
		} else {
			relay := workerapp.TransferRelay{
				Outbox:    store.transfers,
				Executor:  relayer.NewClient(cfg.RelayerURL, cfg.RelayerAuthToken),
				Clock:     store.clock,
				Metrics:   promMetrics,
				BatchSize: cfg.RelayBatchSize,
				Logger:    logger,
			}
			app.jobs = append(app.jobs, job{name: "transfer-relay", interval: cfg.PollInterval, run: relay.RunOnce})
		}
	}

	if cfg.EnableEventRelay {
		bus, err := messaging.NewKafka(nil, logger)
		if err != nil {
			return nil, err
		}
		relay := workerapp.EventRelay{
			Outbox:    store.events,
			Publisher: bus,
			Clock:     store.clock,
			Metrics:   promMetrics,
			BatchSize: cfg.RelayBatchSize,
			Logger:    logger,
		}
		app.jobs = append(app.jobs, job{name: "event-relay", interval: cfg.PollInterval, run: relay.RunOnce})

		indexer := workerapp.EventIndexer{Metrics: promMetrics, Logger: logger}
		app.consumers = append(app.consumers, consumer{
			name: "event-indexer",
			subscribe: func(ctx context.Context) error {
				for _, topic := range contractsv1.Topics {
					if err := bus.Subscribe(ctx, topic, "event-indexer", indexer.Handle); err != nil {
						return fmt.Errorf("subscribe %s: %w", topic, err)
					}
				}
				return nil
			},
		})
	}

	if cfg.EnableEventArchiver && cfg.ArchiveBucket != "" {
		archive, err := s3archive.NewFromConfig(ctx, s3archive.Config{
			Bucket:          cfg.ArchiveBucket,
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
			MaxRetries:      3,
		})
		if err != nil {
			return nil, err
		}
		archiver := workerapp.EventArchiver{
			Outbox:      store.events,
			Archive:     archive,
			Clock:       store.clock,
			IDGenerator: store.ids,
			Metrics:     promMetrics,
			Prefix:      cfg.ArchivePrefix,
			Logger:      logger,
		}
		app.jobs = append(app.jobs, job{name: "event-archiver", interval: cfg.ArchiveInterval, run: archiver.RunOnce})
	}
	return app, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	if a.workers != nil {
		if err := a.workers.start(ctx); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	var errs []error
	if a.workers != nil {
		errs = append(errs, a.workers.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (w *WorkerApp) start(ctx context.Context) error {
	for _, item := range w.consumers {
		if err := item.subscribe(ctx); err != nil {
			return err
		}
		w.logger.Info("bus consumer subscribed",
			"event", "bootstrap_consumer_subscribed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"consumer", item.name,
		)
	}
	if len(w.jobs) == 0 {
		w.logger.Warn("no worker jobs enabled",
			"event", "bootstrap_worker_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	for _, item := range w.jobs {
		item := item
		_, err := scheduler.NewJob(
			gocron.DurationJob(item.interval),
			gocron.NewTask(func() {
				if err := item.run(ctx); err != nil && ctx.Err() == nil {
					w.logger.Error("worker job failed",
						"event", "worker_job_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"job", item.name,
						"error", err.Error(),
					)
				}
			}),
			gocron.WithName(item.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return fmt.Errorf("schedule %s: %w", item.name, err)
		}
	}
	scheduler.Start()
	w.scheduler = scheduler

	names := make([]string, 0, len(w.jobs))
	for _, item := range w.jobs {
		names = append(names, item.name)
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"jobs", strings.Join(names, ","),
	)
	return nil
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.scheduler != nil {
		errs = append(errs, w.scheduler.Shutdown())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func metricsPrefix(serviceName string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.TrimSpace(serviceName))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
