package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"plexport/internal/dbexec"
	"plexport/internal/explorer"
	"plexport/internal/library"
	"plexport/internal/schema"
)

type stubExplorer struct {
	tables    *explorer.TableList
	result    *explorer.QueryResult
	err       error
	lastQuery explorer.QueryRequest
}

func (s *stubExplorer) ListTables(context.Context) (*explorer.TableList, error) {
	return s.tables, s.err
}

func (s *stubExplorer) Query(_ context.Context, req explorer.QueryRequest) (*explorer.QueryResult, error) {
	s.lastQuery = req
	return s.result, s.err
}

func newStubRouter(stub *stubExplorer) *http.ServeMux {
	return New(stub, nil, nil).Router(Options{})
}

func TestListTablesEndpoint(t *testing.T) {
	count := int64(12)
	stub := &stubExplorer{
		tables: &explorer.TableList{Tables: []schema.TableSummary{
			{Name: "media", RowCount: &count},
			{Name: "settings"},
		}},
	}
	router := newStubRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/db/tables", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Tables []struct {
			Name     string `json:"name"`
			RowCount *int64 `json:"rowCount"`
		} `json:"tables"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Tables) != 2 || body.Tables[0].Name != "media" {
		t.Errorf("body = %+v", body)
	}
	if body.Tables[0].RowCount == nil || *body.Tables[0].RowCount != 12 {
		t.Errorf("rowCount = %v", body.Tables[0].RowCount)
	}
	if body.Tables[1].RowCount != nil {
		t.Errorf("failed count should serialize as null, got %v", *body.Tables[1].RowCount)
	}
}

func TestQueryEndpointStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid request", fmt.Errorf("%w: invalid table name", explorer.ErrInvalidRequest), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: ghosts", explorer.ErrNotFound), http.StatusNotFound},
		{"unavailable", fmt.Errorf("%w: no connection", explorer.ErrUnavailable), http.StatusServiceUnavailable},
		{"execution failure", errors.New("syntax error near SELECT"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newStubRouter(&stubExplorer{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/admin/db/query", strings.NewReader(`{"table":"media"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body.Error, "SELECT") {
				t.Errorf("execution error leaked to client: %q", body.Error)
			}
		})
	}
}

func TestQueryEndpointRejectsBadBody(t *testing.T) {
	router := newStubRouter(&stubExplorer{})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/db/query", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQueryEndpointMethodNotAllowed(t *testing.T) {
	router := newStubRouter(&stubExplorer{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/db/query", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestQueryEndpointEndToEnd(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := dbexec.NewStandardExecutor(db)
	intro := schema.NewIntrospector(exec, schema.SQLiteDialect{}, logger)
	svc := explorer.NewService(exec, intro, explorer.DefaultLimits(), logger, nil)
	router := New(svc, nil, db).Router(Options{})

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("media")`)).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "title", "TEXT", 0, nil, 0).
			AddRow(2, "year", "INTEGER", 0, nil, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media" WHERE "year" = ?`)).
		WithArgs(float64(2020)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" WHERE "year" = ? LIMIT ? OFFSET ?`)).
		WithArgs(float64(2020), 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}).
			AddRow(int64(1), "Alpha", int64(2020)).
			AddRow(int64(3), "Gamma", int64(2020)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "title" AS value`)).
		WillReturnRows(sqlmock.NewRows([]string{"value", "count"}).AddRow("Alpha", 1).AddRow("Gamma", 1))

	payload := `{"table":"media","filters":{"equals":[{"column":"year","value":2020}]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/db/query", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result explorer.QueryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 || result.Pagination.HasMore {
		t.Errorf("pagination = %+v", result.Pagination)
	}
	if len(result.Rows) != 2 || result.Rows[0]["title"] != "Alpha" || result.Rows[1]["title"] != "Gamma" {
		t.Errorf("rows = %v", result.Rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryEndpointInjectionAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := dbexec.NewStandardExecutor(db)
	intro := schema.NewIntrospector(exec, schema.SQLiteDialect{}, logger)
	svc := explorer.NewService(exec, intro, explorer.DefaultLimits(), logger, nil)
	router := New(svc, nil, db).Router(Options{})

	payload := `{"table":"media; DROP TABLE media--"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/db/query", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	// The rejected identifier must never reach the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	router := New(&stubExplorer{}, nil, db).Router(Options{})

	t.Run("healthy", func(t *testing.T) {
		mock.ExpectPing()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		mock.ExpectPing().WillReturnError(errors.New("gone"))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestListMoviesEndpoint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := library.NewStore(db, "sqlite3")
	router := New(&stubExplorer{}, store, db).Router(Options{})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM movies WHERE year = ? ORDER BY added_at DESC, id DESC LIMIT 100`)).
		WithArgs(2020).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year", "summary", "duration", "watched", "added_at"}).
			AddRow(1, "Alpha", 2020, nil, nil, true, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/library/movies?year=2020", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Count int             `json:"count"`
		Items []library.Movie `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Items[0].Title != "Alpha" {
		t.Errorf("body = %+v", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListMoviesRejectsBadParams(t *testing.T) {
	router := New(&stubExplorer{}, nil, nil).Router(Options{})

	for _, target := range []string{
		"/api/library/movies?year=twenty",
		"/api/library/movies?watched=maybe",
		"/api/library/movies?limit=0",
		"/api/library/movies?offset=-1",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}
