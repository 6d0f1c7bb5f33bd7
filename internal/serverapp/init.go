package serverapp

import (
	"context"
	"fmt"
	"net/http"

	"plexport/internal/dbexec"
	"plexport/internal/explorer"
	"plexport/internal/schema"
	"plexport/internal/server"
)

// Init initializes all runtime resources. It is idempotent.
func (a *App) Init(ctx context.Context) error {
	a.stateMu.Lock()
	if a.initialized {
		a.stateMu.Unlock()
		return nil
	}
	a.stateMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	cleanup := cleanupStack{}
	success := false
	defer func() {
		if !success {
			cleanup.run(context.Background(), a.logger)
		}
	}()

	meterProvider, httpMetrics, explorerMetrics, err := initMetrics(a.cfg, a.logger)
	if err != nil {
		return err
	}
	if meterProvider != nil {
		cleanup.push("meter provider", func(shutdownCtx context.Context) error {
			return meterProvider.Shutdown(shutdownCtx, a.logger.Logger)
		})
	}

	dialect, err := resolveDialect(a.cfg)
	if err != nil {
		return err
	}

	db, err := connectDB(ctx, a.cfg, dialect, a.logger)
	if err != nil {
		return err
	}
	cleanup.push("database", func(context.Context) error {
		return db.Close()
	})

	queryExecutor := dbexec.NewStandardExecutor(db)
	introspector := schema.NewIntrospector(queryExecutor, dialect, a.logger.Logger)
	explorerSvc := explorer.NewService(queryExecutor, introspector, explorerLimits(a.cfg), a.logger.Logger, explorerMetrics)

	store, exporter, scheduler, err := buildLibrary(a.cfg, a.logger, db, dialect)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		cleanup.push("export scheduler", func(context.Context) error {
			scheduler.Stop()
			return nil
		})
	}

	mux := server.New(explorerSvc, store, db).Router(server.Options{
		MetricsEnabled: a.cfg.Observability.MetricsEnabled,
	})
	handler := wrapHTTPHandler(a.cfg, a.logger, httpMetrics, mux)

	serverAddr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
	cleanup.push("HTTP server", func(shutdownCtx context.Context) error {
		return srv.Shutdown(shutdownCtx)
	})

	a.stateMu.Lock()
	a.meterProvider = meterProvider
	a.httpMetrics = httpMetrics
	a.explorerMetrics = explorerMetrics
	a.db = db
	a.queryExecutor = queryExecutor
	a.explorerSvc = explorerSvc
	a.store = store
	a.exporter = exporter
	a.scheduler = scheduler
	a.mux = mux
	a.handler = handler
	a.serverAddr = serverAddr
	a.srv = srv
	a.cleanup = cleanup
	a.initialized = true
	a.stateMu.Unlock()

	success = true
	return nil
}
