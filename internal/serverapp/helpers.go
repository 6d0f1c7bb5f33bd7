package serverapp

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"plexport/internal/config"
	"plexport/internal/explorer"
	"plexport/internal/library"
	"plexport/internal/logging"
	"plexport/internal/middleware"
	"plexport/internal/observability"
	"plexport/internal/schema"
)

// resolveDialect maps the configured driver onto a schema dialect.
func resolveDialect(cfg *config.Config) (schema.Dialect, error) {
	dialect, err := schema.ForName(cfg.Database.Driver)
	if err != nil {
		return nil, fmt.Errorf("unsupported database driver %q: %w", cfg.Database.Driver, err)
	}
	return dialect, nil
}

// buildDataSource renders the driver-specific DSN from configuration.
func buildDataSource(cfg *config.Config, dialect schema.Dialect) (string, error) {
	switch dialect.DriverName() {
	case "sqlite3":
		dsn := url.URL{Scheme: "file", Opaque: cfg.Database.Path}
		query := url.Values{}
		if cfg.Database.ReadOnly {
			query.Set("mode", "ro")
		}
		// A live Plex server holds write locks; don't queue behind them
		// forever.
		query.Set("_busy_timeout", "5000")
		dsn.RawQuery = query.Encode()
		return dsn.String(), nil
	case "mysql":
		if cfg.Database.ConnectionString != "" {
			return cfg.Database.ConnectionString, nil
		}
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port)
		mc.User = cfg.Database.User
		mc.Passwd = cfg.Database.Password
		mc.DBName = cfg.Database.Database
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	default:
		return "", fmt.Errorf("no DSN builder for driver %q", dialect.DriverName())
	}
}

// connectDB opens and verifies the store connection.
func connectDB(ctx context.Context, cfg *config.Config, dialect schema.Dialect, logger *logging.Logger) (*sql.DB, error) {
	dsn, err := buildDataSource(cfg, dialect)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Database.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Database.Pool.MaxLifetime)

	pingCtx := ctx
	if cfg.Database.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectionTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	logger.Info("connected to store",
		slog.String("driver", dialect.DriverName()),
		slog.String("dialect", dialect.Name()),
	)
	return db, nil
}

// initMetrics sets up the meter provider and instrument handles when
// metrics are enabled.
func initMetrics(cfg *config.Config, logger *logging.Logger) (*observability.MeterProvider, *observability.HTTPMetrics, *observability.ExplorerMetrics, error) {
	if !cfg.Observability.MetricsEnabled {
		logger.Info("metrics disabled")
		return nil, nil, nil, nil
	}

	meterProvider, err := observability.InitMeterProvider(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Observability.Environment,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	httpMetrics, err := observability.InitHTTPMetrics()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize HTTP metrics: %w", err)
	}
	explorerMetrics, err := observability.InitExplorerMetrics()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize explorer metrics: %w", err)
	}

	return meterProvider, httpMetrics, explorerMetrics, nil
}

// explorerLimits maps explorer configuration onto service limits.
func explorerLimits(cfg *config.Config) explorer.Limits {
	return explorer.Limits{
		DefaultLimit:         cfg.Explorer.DefaultLimit,
		MaxLimit:             cfg.Explorer.MaxLimit,
		EnumSampleSize:       cfg.Explorer.EnumSampleSize,
		EnumValueMaxLength:   cfg.Explorer.EnumValueMaxLength,
		EnumColumnLimit:      cfg.Explorer.EnumColumnLimit,
		AnchorReplacesOffset: cfg.Explorer.AnchorMode == "replace",
	}
}

// wrapHTTPHandler layers the middleware chain around the router. Recovery
// sits outermost so a panic in any later layer still yields a response.
func wrapHTTPHandler(cfg *config.Config, logger *logging.Logger, httpMetrics *observability.HTTPMetrics, mux *http.ServeMux) http.Handler {
	var handler http.Handler = mux
	handler = middleware.Metrics(httpMetrics)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.CORS(cfg.Server.CORS)(handler)
	handler = middleware.Recover()(handler)
	return handler
}

// buildLibrary wires the store, exporter, and optional scheduler.
func buildLibrary(cfg *config.Config, logger *logging.Logger, db *sql.DB, dialect schema.Dialect) (*library.Store, *library.Exporter, *library.Scheduler, error) {
	store := library.NewStore(db, dialect.DriverName())
	if !cfg.Export.Enabled {
		return store, nil, nil, nil
	}

	exporter := library.NewExporter(store, cfg.Export.OutputDir, logger.Logger, nil)
	scheduler, err := library.NewScheduler(exporter, cfg.Export.Schedule, logger.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize export scheduler: %w", err)
	}
	return store, exporter, scheduler, nil
}

func startServer(cfg *config.Config, logger *logging.Logger, srv *http.Server, serverAddr string) chan error {
	serverErrors := make(chan error, 1)
	go func() {
		logAttrs := []any{
			slog.String("address", serverAddr),
			slog.String("health_endpoint", "/healthz"),
			slog.String("log_level", cfg.Observability.Logging.Level),
			slog.String("log_format", cfg.Observability.Logging.Format),
		}
		if cfg.Observability.MetricsEnabled {
			logAttrs = append(logAttrs, slog.String("metrics_endpoint", "/metrics"))
		}
		if cfg.Export.Enabled {
			logAttrs = append(logAttrs, slog.String("export_schedule", cfg.Export.Schedule))
		}
		logger.Info("server listening", logAttrs...)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	return serverErrors
}
