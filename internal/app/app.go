// Package app wires the reconciler together: storage, vault, gateways, the
// engine, the scheduler and the ops servers. It also handles graceful
// shutdown.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fincoval/creditsync/internal/archive"
	"github.com/fincoval/creditsync/internal/common"
	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/events"
	"github.com/fincoval/creditsync/internal/gateway/source"
	"github.com/fincoval/creditsync/internal/gateway/target"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/models"
	"github.com/fincoval/creditsync/internal/ops"
	"github.com/fincoval/creditsync/internal/reconcile"
	"github.com/fincoval/creditsync/internal/repositories/repomanager"
	"github.com/fincoval/creditsync/internal/scheduler"
	"github.com/fincoval/creditsync/internal/telemetry"
	"github.com/fincoval/creditsync/internal/timex"
	"github.com/fincoval/creditsync/internal/transform"
	"github.com/fincoval/creditsync/internal/vault"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	repos     repomanager.RepositoryManager
	vault     *vault.Vault
	tokens    *vault.SourceTokens
	engine    *reconcile.Engine
	scheduler *scheduler.Scheduler
	metrics   *telemetry.Metrics
	health    *ops.HealthServer
	http      *ops.HTTPServer
	closers   []func(context.Context) error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel).With("service", cfg.ServiceName)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxConns)

	app := &App{config: cfg, logger: logger, db: db, repos: repomanager.NewPostgresRepositoryManager()}
	app.closers = append(app.closers, func(context.Context) error { return db.Close() })

	if err := app.init(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	cfg := app.config

	key, err := vault.KeyFromConfig(cfg.Vault)
	if err != nil {
		return err
	}
	app.vault = vault.New(app.repos.Credentials(app.db), key)

	app.metrics = telemetry.NewMetrics()
	tp, err := telemetry.NewTracerProvider(ctx, cfg.ServiceName, cfg.TracingEndpoint)
	if err != nil {
		return fmt.Errorf("tracing init error: %w", err)
	}
	app.closers = append(app.closers, tp.Shutdown)
	tel := telemetry.New(app.metrics, tp)

	src := source.New(cfg.Source, nil)
	src.Instrument(tel.Transport("source"))
	app.tokens = vault.NewSourceTokens(app.vault, src.Login, vault.TokenOptions{
		Username: cfg.Source.Username,
		Password: cfg.Source.Password,
		Validity: cfg.Source.TokenValidity,
		Margin:   cfg.Source.TokenMargin,
	}, app.logger.With("module", "vault"))
	src.SetTokens(app.tokens)

	tgt := target.New(cfg.Target)
	tgt.Instrument(tel.Transport("target"))

	loc, err := timex.LoadZone(cfg.Schedule.TimeZone)
	if err != nil {
		return err
	}
	tr := transform.New(transform.Options{
		Now:               timex.ClockIn(loc),
		SourceTag:         cfg.Source.Tag,
		DefaultCompanyKey: cfg.Target.DefaultRoutingKey,
		PaymentCutoff:     cfg.Sync.PaymentCutoff,
		ActionCutoff:      cfg.Sync.ActionCutoff,
		Cities:            transform.NewCityCatalog(cfg.Sync.CityCodes),
	})

	app.engine = reconcile.New(app.db, app.repos, src, tgt, tr, reconcile.Options{
		Concurrency:       cfg.Sync.Concurrency,
		SourceTag:         cfg.Source.Tag,
		DefaultRoutingKey: cfg.Target.DefaultRoutingKey,
		SourceCompanyKey:  cfg.Source.CompanyKey,
		ActionCutoff:      cfg.Sync.ActionCutoff,
		EnsureAttempts:    cfg.Sync.EnsureAttempts,
		EnsureInterval:    cfg.Sync.EnsureInterval,
		ReexportOnChange:  cfg.Sync.ReexportOnChange,
	}, app.logger)
	app.engine.SetObserver(tel)

	if err := app.initSinks(ctx); err != nil {
		return err
	}

	refresh := func(ctx context.Context) error {
		_, err := app.tokens.Token(ctx)
		return err
	}
	sched, err := scheduler.New(cfg.Schedule, scheduler.DefaultJobs(cfg.Schedule, refresh), app.engine, app.logger)
	if err != nil {
		return err
	}
	app.scheduler = sched

	classes := make([]string, 0, len(sched.Classes()))
	for _, c := range sched.Classes() {
		classes = append(classes, string(c))
	}
	app.health = ops.NewHealthServer(cfg.HealthGRPCAddr, classes, app.logger)
	sched.AddObserver(tel)
	sched.AddObserver(app.health)

	router := ops.NewRouter(app.engine, sched, app.db, app.metrics.Handler(), app.logger)
	app.http = ops.NewHTTPServer(cfg.OpsHTTPAddr, router, app.logger)

	return nil
}

// initSinks attaches the configured summary sinks to the engine.
func (app *App) initSinks(ctx context.Context) error {
	cfg := app.config.Archive

	if cfg.LocalDir != "" {
		spool, err := archive.NewSpool(cfg.LocalDir)
		if err != nil {
			return fmt.Errorf("summary spool: %w", err)
		}
		app.engine.AddSink(spool)
		app.logger.Info(ctx, "summary spool enabled", "dir", spool.Dir())
	}

	if cfg.S3Bucket != "" {
		s3sink, err := archive.NewS3Sink(ctx, cfg)
		if err != nil {
			return fmt.Errorf("summary archive: %w", err)
		}
		app.engine.AddSink(s3sink)
		app.logger.Info(ctx, "summary archive enabled", "bucket", cfg.S3Bucket)
	}

	if len(app.config.Events.Brokers) > 0 {
		pub := events.NewPublisher(app.config.Events)
		app.engine.AddSink(pub)
		app.closers = append(app.closers, func(context.Context) error { return pub.Close() })
		app.logger.Info(ctx, "summary events enabled", "topic", app.config.Events.Topic)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the database, then serves the scheduler and the ops servers
// until a signal arrives. Running jobs are allowed to finish their in-flight
// records before Run returns.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(gctx) })
	g.Go(func() error { return app.health.Run(gctx) })

	if err := app.scheduler.Start(gctx); err != nil {
		cancelFunc()
		_ = g.Wait()
		return err
	}

	err := g.Wait()
	app.logger.Info(ctx, "Stopping scheduler...")
	app.scheduler.Stop()
	return err
}

func (app *App) Migrate(ctx context.Context) error {
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// RunOnce runs a single pass, or every pass of a job class, and returns the
// summaries.
func (app *App) RunOnce(ctx context.Context, name string) ([]*reconcile.Summary, error) {
	if p := reconcile.Pass(name); p.Valid() {
		s, err := app.engine.Run(ctx, p)
		if err != nil {
			return nil, err
		}
		return []*reconcile.Summary{s}, nil
	}
	return app.scheduler.RunNow(ctx, scheduler.JobClass(name))
}

// PutCredential stores a login in the vault, replacing any previous login
// and cached token for service.
func (app *App) PutCredential(ctx context.Context, service, username, password string) error {
	cred, err := app.vault.Get(ctx, service)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		err = app.vault.Save(ctx, &models.Credential{ServiceName: service, Username: username, Password: password})
	case err != nil:
		return err
	default:
		cred.Username, cred.Password = username, password
		cred.Token, cred.ExpiresAt = "", nil
		err = app.vault.Update(ctx, cred)
	}
	if err != nil {
		return err
	}
	app.tokens.Invalidate()
	return nil
}

// Close releases resources in reverse order of acquisition.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
