package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"plexport/internal/library"
	"plexport/internal/logging"
)

const (
	defaultLibraryLimit = 100
	maxLibraryLimit     = 500
)

// libraryListResponse is the envelope for movie and series listings.
type libraryListResponse struct {
	Count int `json:"count"`
	Items any `json:"items"`
}

func (h *Handlers) listMovies(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}
	movies, err := h.store.ListMovies(r.Context(), opts)
	if err != nil {
		h.writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, libraryListResponse{Count: len(movies), Items: movies})
}

func (h *Handlers) listSeries(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}
	series, err := h.store.ListSeries(r.Context(), opts)
	if err != nil {
		h.writeLibraryError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, libraryListResponse{Count: len(series), Items: series})
}

func (h *Handlers) writeLibraryError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("library listing failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, r, http.StatusInternalServerError, "listing failed")
}

// parseListOptions reads year/watched/limit/offset query parameters. A
// malformed parameter is a client error, not a silently empty filter.
func parseListOptions(w http.ResponseWriter, r *http.Request) (library.ListOptions, bool) {
	opts := library.ListOptions{Limit: defaultLibraryLimit}
	q := r.URL.Query()

	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid year parameter")
			return opts, false
		}
		opts.Year = &year
	}
	if raw := q.Get("watched"); raw != "" {
		watched, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid watched parameter")
			return opts, false
		}
		opts.Watched = &watched
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit parameter")
			return opts, false
		}
		if limit > maxLibraryLimit {
			limit = maxLibraryLimit
		}
		opts.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid offset parameter")
			return opts, false
		}
		opts.Offset = offset
	}
	return opts, true
}
