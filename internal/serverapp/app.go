// Package serverapp owns the server lifecycle: resource acquisition,
// startup, and ordered shutdown.
package serverapp

import (
	"database/sql"
	"fmt"
	"net/http"
	"sync"

	"plexport/internal/config"
	"plexport/internal/dbexec"
	"plexport/internal/explorer"
	"plexport/internal/library"
	"plexport/internal/logging"
	"plexport/internal/observability"
)

// App owns runtime resources for the plexport server lifecycle.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	meterProvider   *observability.MeterProvider
	httpMetrics     *observability.HTTPMetrics
	explorerMetrics *observability.ExplorerMetrics

	db            *sql.DB
	queryExecutor dbexec.QueryExecutor
	explorerSvc   *explorer.Service

	store     *library.Store
	exporter  *library.Exporter
	scheduler *library.Scheduler

	mux     *http.ServeMux
	handler http.Handler

	serverAddr string
	srv        *http.Server

	cleanup cleanupStack

	stateMu      sync.Mutex
	initialized  bool
	started      bool
	serverErrors chan error

	shutdownOnce sync.Once
}

// New creates an App lifecycle wrapper.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &App{cfg: cfg, logger: logger}, nil
}
