package cmd

import (
	"fmt"

	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/database"
	"github.com/killallgit/waskita-api/internal/services/apify"
	"github.com/killallgit/waskita-api/internal/services/classification"
	"github.com/killallgit/waskita-api/internal/services/cleaning"
	"github.com/killallgit/waskita-api/internal/services/datasets"
	"github.com/killallgit/waskita-api/internal/services/ingest"
	"github.com/killallgit/waskita-api/internal/services/jobs"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/pending"
	"github.com/killallgit/waskita-api/internal/services/progress"
	"github.com/killallgit/waskita-api/internal/services/upload"
	"github.com/killallgit/waskita-api/pkg/config"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// app holds the services shared by serve, scrape and cleanup
type app struct {
	cfg *config.Config
	log logger.Logger

	db             *database.DB
	store          pending.Store
	apify          *apify.Client
	jobs           jobs.Service
	datasets       datasets.Service
	writer         *ingest.Writer
	negotiator     *mapping.Negotiator
	progress       *progress.Tracker
	upload         *upload.Service
	cleaning       *cleaning.Service
	classification *classification.Service
}

// openDatabase connects using the database config section
func openDatabase(cfg *config.Config) (*database.DB, error) {
	return database.Open(database.Config{
		Driver:                cfg.Database.Driver,
		Path:                  cfg.Database.Path,
		DSN:                   cfg.Database.DSN,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
		Verbose:               cfg.Database.Verbose,
	})
}

// newPendingStore returns the configured store for staged scrape results
func newPendingStore(cfg *config.Config) (pending.Store, error) {
	switch cfg.Pending.Backend {
	case config.PendingBackendRedis:
		client, err := pending.NewRedisClient(pending.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return pending.NewRedisStore(client), nil
	default:
		return pending.NewMemoryStore(cfg.Pending.MaxSizeMB), nil
	}
}

// apifyConfig maps the apify config section onto the client config
func apifyConfig(cfg *config.Config) apify.Config {
	return apify.Config{
		APIToken:   cfg.Apify.APIToken,
		BaseURL:    cfg.Apify.BaseURL,
		Timeout:    cfg.Apify.Timeout,
		MaxRetries: cfg.Apify.MaxRetries,
		RetryDelay: cfg.Apify.RetryDelay,
		RateLimit:  cfg.Apify.RateLimit,
		Actors:     cfg.Apify.Actors,
		Wait: apify.WaitOptions{
			MaxWait:       cfg.Apify.Wait.MaxWait,
			CheckInterval: cfg.Apify.Wait.CheckInterval,
		},
	}
}

// newApp opens the database, migrates it and builds every service
func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := newPendingStore(cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating pending store: %w", err)
	}

	a, err := buildApp(cfg, log, db, store)
	if err != nil {
		_ = store.Close()
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// buildApp wires the services over an open database and pending store.
// Missing classifier files only disable classification.
func buildApp(cfg *config.Config, log logger.Logger, db *database.DB, store pending.Store) (*app, error) {
	scope, err := cleaning.ParseScope(cfg.Cleaning.DedupScope, cleaning.ScopeGlobal)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, db: db, store: store}
	a.apify = apify.NewClient(apifyConfig(cfg), apify.WithLogger(log))
	a.progress = progress.NewTracker(a.apify, progress.WithLogger(log))
	a.jobs = jobs.NewService(jobs.NewRepository(db.DB), cfg.Apify.RetryDelay, log)
	a.datasets = datasets.NewService(db.DB, datasets.NewRepository(db.DB), log)
	a.writer = ingest.NewWriter(db.DB, a.datasets, log)
	a.negotiator = mapping.NewNegotiator(store, a.writer, a.datasets,
		mapping.WithTTL(cfg.Pending.TTL), mapping.WithLogger(log))
	a.upload = upload.NewService(a.datasets, a.writer, cfg.Upload.MaxSize, log)
	a.cleaning = cleaning.NewService(db.DB, a.datasets, scope, log)

	vectors, models, err := classification.LoadModels(cfg.Classifier.Word2VecPath, cfg.Classifier.Models, log)
	if err != nil {
		log.Warn("Classification disabled, models could not be loaded", logger.Error(err))
	} else {
		a.classification = classification.NewService(db.DB, vectors, models, a.datasets, log)
	}
	return a, nil
}

// dependencies exposes the services to the HTTP layer
func (a *app) dependencies() *types.Dependencies {
	deps := &types.Dependencies{
		DB:         a.db,
		Config:     a.cfg,
		Logger:     a.log,
		Jobs:       a.jobs,
		Datasets:   a.datasets,
		Negotiator: a.negotiator,
		Upload:     a.upload,
		Cleaning:   a.cleaning,
		Progress:   a.progress,
	}
	// a nil *Service stored in the interface would look configured
	if a.classification != nil {
		deps.Classification = a.classification
	}
	return deps
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close pending store", logger.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("Failed to close database", logger.Error(err))
	}
}
