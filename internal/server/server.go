// Package server wires the HTTP surface: library browsing, the admin
// database explorer, health, and metrics.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"plexport/internal/explorer"
	"plexport/internal/library"
)

// healthCheckTimeout bounds the liveness ping to the store.
const healthCheckTimeout = 2 * time.Second

// ExplorerService is the explorer surface the handlers depend on.
type ExplorerService interface {
	ListTables(ctx context.Context) (*explorer.TableList, error)
	Query(ctx context.Context, req explorer.QueryRequest) (*explorer.QueryResult, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	explorer ExplorerService
	store    *library.Store
	db       *sql.DB
}

// Options configures the router.
type Options struct {
	MetricsEnabled bool
}

// New creates the handler set.
func New(explorerSvc ExplorerService, store *library.Store, db *sql.DB) *Handlers {
	return &Handlers{explorer: explorerSvc, store: store, db: db}
}

// Router builds the route table. Method-qualified patterns reject wrong
// methods with 405 without per-handler checks.
func (h *Handlers) Router(opts Options) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /api/library/movies", h.listMovies)
	mux.HandleFunc("GET /api/library/series", h.listSeries)
	mux.HandleFunc("GET /api/admin/db/tables", h.listTables)
	mux.HandleFunc("POST /api/admin/db/query", h.queryTable)

	if opts.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return mux
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"store":  "unreachable",
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
