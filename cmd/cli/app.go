package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/anstrom/scanbridge/internal/api/handlers"
	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/db"
	"github.com/anstrom/scanbridge/internal/delivery"
	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/gmp"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/metrics"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

const (
	databaseTimeout = 5 * time.Second
	drainTimeout    = 30 * time.Second
)

// loadConfig reads the config file, applies environment overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Parse(getConfigFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// app holds the wired components shared by every command.
type app struct {
	cfg         *config.Config
	logger      *logging.Logger
	metrics     *metrics.PrometheusMetrics
	database    *db.DB
	coordinator *delivery.Coordinator
	orch        *orchestrator.Orchestrator
}

// newApp wires the engine connector, discovery, delivery and the
// orchestrator from cfg. pm may be nil.
func newApp(ctx context.Context, cfg *config.Config, pm *metrics.PrometheusMetrics) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logging.Default(),
		metrics: pm,
	}

	var rec metrics.Recorder = metrics.Nop{}
	if pm != nil {
		rec = pm
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []delivery.Option{
		delivery.WithSendTimeout(cfg.Delivery.SendTimeout),
		delivery.WithMetrics(rec),
	}
	if cfg.Archive.Enabled {
		archiver, err := delivery.NewMinioArchiver(cfg.Archive)
		if err != nil {
			a.closeDatabase()
			return nil, fmt.Errorf("failed to create report archiver: %w", err)
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			a.closeDatabase()
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
		opts = append(opts, delivery.WithArchiver(archiver))
	}

	mailer := delivery.NewSMTPMailer(cfg.Delivery.SMTP, cfg.Delivery.SendTimeout)
	a.coordinator = delivery.NewCoordinator(store, mailer, a.logger, opts...)

	finder := discovery.NewEngine(discovery.NewRunner(cfg.Discovery, a.logger), cfg.Discovery, a.logger, rec)
	a.orch = orchestrator.New(gmp.NewDialer(cfg.Engine, a.logger), finder, a.coordinator, cfg.Engine, a.logger, rec)

	return a, nil
}

// openStore returns the obligation store selected by delivery.store,
// connecting to the database for the postgres store.
func (a *app) openStore(ctx context.Context) (delivery.Store, error) {
	ttl := a.cfg.Delivery.ObligationTTL
	if a.cfg.Delivery.Store != config.StorePostgres {
		return delivery.NewMemoryStore(ttl), nil
	}

	a.logger.Info("Connecting to database...")
	dbCfg := a.cfg.GetDatabaseConfig()
	database, err := db.ConnectAndMigrate(ctx, &dbCfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, databaseTimeout)
	defer cancel()
	if err := database.Ping(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	a.logger.Info("Database connection successful")

	a.database = database
	return delivery.NewPostgresStore(database.DB, ttl), nil
}

// dependencies returns the handler dependencies backed by this app.
func (a *app) dependencies() handlers.Dependencies {
	deps := handlers.Dependencies{
		Orchestrator:   a.orch,
		Pending:        a.coordinator,
		Logger:         a.logger,
		StreamInterval: a.cfg.API.StreamInterval,
	}
	if a.database != nil {
		deps.Database = a.database
	}
	return deps
}

// Close waits for in-flight deliveries and releases the database.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := a.coordinator.Shutdown(ctx); err != nil {
		a.logger.Warn("Pending report deliveries did not finish", "error", err)
	}
	a.closeDatabase()
}

func (a *app) closeDatabase() {
	if a.database == nil {
		return
	}
	if err := a.database.Close(); err != nil {
		a.logger.Error("Failed to close database connection", "error", err)
	}
	a.database = nil
}

// withApp loads configuration, wires an app and runs fn with it.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
