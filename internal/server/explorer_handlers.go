package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"plexport/internal/explorer"
	"plexport/internal/logging"
)

// maxQueryBodyBytes bounds the explorer request body. A query request is
// small structured JSON; anything larger is not a legitimate request.
const maxQueryBodyBytes = 1 << 20

func (h *Handlers) listTables(w http.ResponseWriter, r *http.Request) {
	result, err := h.explorer.ListTables(r.Context())
	if err != nil {
		h.writeExplorerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (h *Handlers) queryTable(w http.ResponseWriter, r *http.Request) {
	var req explorer.QueryRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.explorer.Query(r.Context(), req)
	if err != nil {
		h.writeExplorerError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// writeExplorerError maps the explorer error taxonomy onto HTTP status
// codes. Execution failures log the full error server-side and return a
// generic message so SQL text never leaks to the client.
func (h *Handlers) writeExplorerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, explorer.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, explorer.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, explorer.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "database unavailable")
	default:
		logging.FromContext(r.Context()).Error("explorer query failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, r, http.StatusInternalServerError, "query execution failed")
	}
}
