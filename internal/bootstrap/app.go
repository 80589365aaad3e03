package bootstrap

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	importapp "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	"github.com/mohammadpnp/catalog-import/internal/application/progress"
	webhookapp "github.com/mohammadpnp/catalog-import/internal/application/webhook"
	"github.com/mohammadpnp/catalog-import/internal/config"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/db"
	infraprogress "github.com/mohammadpnp/catalog-import/internal/infrastructure/progress"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/repository"
	"github.com/mohammadpnp/catalog-import/internal/infrastructure/source"
	infrawebhook "github.com/mohammadpnp/catalog-import/internal/infrastructure/webhook"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// App holds the long-lived dependencies shared by the HTTP server and the
// import workers.
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Pool       *pgxpool.Pool
	Hub        *progress.Hub
	Dispatcher *webhookapp.Dispatcher
	ImportJobs *repository.ImportJobRepository
	Products   *repository.ProductRepository
	Worker     *importapp.ImportWorker

	publisher importapp.ProgressPublisher
	listener  *infraprogress.PGListener
	scrubber  *ScrubScheduler
	wg        sync.WaitGroup
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, gormDB); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	app := &App{
		Config:     cfg,
		DB:         gormDB,
		Pool:       pool,
		Hub:        progress.NewHub(cfg.ProgressBuffer),
		ImportJobs: repository.NewImportJobRepository(gormDB),
		Products:   repository.NewProductRepository(gormDB),
	}

	app.publisher = app.Hub
	if cfg.ProgressBackend == config.ProgressBackendPostgres {
		app.publisher = infraprogress.NewPGNotifier(pool)
		app.listener = infraprogress.NewPGListener(cfg.DatabaseURL, app.Hub)
	}

	app.Dispatcher = webhookapp.NewDispatcher(
		repository.NewWebhookRepository(gormDB),
		infrawebhook.NewHTTPSender(cfg.WebhookTimeout, cfg.WebhookRPS),
	)

	if cfg.ImportWorkerEnabled {
		app.Worker = importapp.NewImportWorker(
			app.ImportJobs,
			source.NewStoredPayload(app.ImportJobs),
			repository.NewProductBulkUpsertRepository(pool),
			app.publisher,
			app.Dispatcher,
			importapp.ImportWorkerConfig{
				Workers:           cfg.ImportWorkers,
				BatchSize:         cfg.ImportBatchSize,
				PollInterval:      cfg.ImportPollInterval,
				CancelCheckEvery:  cfg.ImportCancelCheckEvery,
				MaxSkippedPercent: cfg.ImportMaxSkippedPct,
			},
		)
	}

	scrub := importapp.NewScrubPayloads(app.ImportJobs, cfg.PayloadRetention)
	if scrub.Enabled() {
		app.scrubber, err = NewScrubScheduler(scrub, cfg.PayloadScrubSchedule)
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	return app, nil
}

// Start launches every background part: the progress relay, workers and
// the payload scrub schedule. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.listener != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.listener.Run(ctx)
		}()
	}
	a.StartWorkers(ctx)
}

// StartWorkers launches the background parts a process without HTTP
// subscribers needs.
func (a *App) StartWorkers(ctx context.Context) {
	if a.Worker != nil {
		a.Worker.Start(ctx)
		log.Printf("import workers started: %d", a.Config.ImportWorkers)
	}

	if a.scrubber != nil {
		a.scrubber.Start(ctx)
	}
}

// Close waits for background work started by Start and releases
// connections. Cancel Start's context first.
func (a *App) Close() {
	if a.scrubber != nil {
		a.scrubber.Stop()
	}
	if a.Worker != nil {
		a.Worker.Wait()
	}
	a.wg.Wait()
	a.Dispatcher.Wait()
	a.Pool.Close()

	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// JobNotifier returns the in-process worker pool to wake on new jobs, or
// nil when workers run elsewhere.
func (a *App) JobNotifier() importapp.JobNotifier {
	if a.Worker == nil {
		return nil
	}
	return a.Worker
}
