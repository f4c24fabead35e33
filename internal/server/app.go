// Package server wires the origin together: record store, object store,
// services, the HTTP API, the gRPC health endpoint and the token sweeper.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/logging"
	"github.com/dmitrijs2005/assetorigin/internal/obs"
	"github.com/dmitrijs2005/assetorigin/internal/server/config"
	"github.com/dmitrijs2005/assetorigin/internal/server/httpapi"
	"github.com/dmitrijs2005/assetorigin/internal/server/objectstore"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/assetorigin/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/assetorigin/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	store   objectstore.Store
	metrics *obs.Metrics
	tokens  *services.TokenIssuer
	api     *httpapi.API
	probe   httpapi.ReadyProbe
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	registry := services.NewAssetRegistry(db, rm, store)
	versions := services.NewVersionStore(db, rm, store, registry)
	tokens := services.NewTokenIssuer(db, rm, c.TokenDefaultTTL, c.TokenMaxTTL)
	metrics := obs.NewMetrics()
	probe := httpapi.ReadyProbe{DB: db, Store: store}

	api := httpapi.New(httpapi.Deps{
		Registry:         registry,
		Versions:         versions,
		Tokens:           tokens,
		Engine:           services.NewCacheDecisionEngine(registry, versions, tokens),
		Store:            store,
		Probe:            probe,
		Metrics:          metrics,
		Logger:           logger,
		ManagementSecret: []byte(c.ManagementSecret),
		UploadLimitBytes: c.UploadLimitBytes,
	})

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		store:   store,
		metrics: metrics,
		tokens:  tokens,
		api:     api,
		probe:   probe,
	}, nil
}

func openDB(ctx context.Context, c *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)
	db.SetConnMaxLifetime(c.DBConnMaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, c.DBConnectTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func newObjectStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	switch c.ObjectStore {
	case config.ObjectStoreMemory:
		return objectstore.NewMemoryStore(), nil
	case config.ObjectStoreS3:
		return objectstore.NewS3Store(ctx, objectstore.S3Settings{
			Region:       c.S3Region,
			AccessKey:    c.S3User,
			SecretKey:    c.S3Password,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown object store %q", c.ObjectStore)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown", "err", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCAddr, app.logger, app.probe, 5*time.Second)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// sweepTokens removes expired tokens until ctx is done.
func (app *App) sweepTokens(ctx context.Context) {
	t := time.NewTicker(app.config.TokenSweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := app.tokens.Sweep(ctx)
			if err != nil {
				app.logger.Warn(ctx, "token sweep failed", "err", err)
				continue
			}
			app.metrics.ObserveSwept(n)
			if n > 0 {
				app.logger.Info(ctx, "expired tokens swept", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.config.TokenSweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweepTokens(ctx)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "err", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
