package explorer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"plexport/internal/dbexec"
	"plexport/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMediaService(t *testing.T, limits Limits) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	exec := dbexec.NewStandardExecutor(db)
	intro := schema.NewIntrospector(exec, schema.SQLiteDialect{}, testLogger())
	return NewService(exec, intro, limits, testLogger(), nil), mock
}

func expectMediaColumns(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("media")`)).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}).
			AddRow(0, "id", "INTEGER", 1, nil, 1).
			AddRow(1, "title", "TEXT", 0, nil, 0).
			AddRow(2, "year", "INTEGER", 0, nil, 0))
}

func expectTitleFacet(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "title" AS value, COUNT(*) AS count FROM "media" WHERE "title" IS NOT NULL AND LENGTH("title") <= ? GROUP BY "title" ORDER BY count DESC LIMIT 20`)).
		WithArgs(64).
		WillReturnRows(sqlmock.NewRows([]string{"value", "count"}).
			AddRow("Alpha", 1).
			AddRow("Gamma", 1))
}

func TestQueryEqualsFilter(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media" WHERE "year" = ?`)).
		WithArgs(float64(2020)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" WHERE "year" = ? LIMIT ? OFFSET ?`)).
		WithArgs(float64(2020), 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}).
			AddRow(int64(1), "Alpha", int64(2020)).
			AddRow(int64(3), "Gamma", int64(2020)))
	expectTitleFacet(mock)

	req := QueryRequest{
		Table:   "media",
		Filters: Filters{Equals: []EqualsFilter{{Column: "year", Value: float64(2020)}}},
	}
	result, err := svc.Query(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if result.Pagination.Total != 2 || result.Pagination.HasMore {
		t.Errorf("pagination = %+v", result.Pagination)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %v", result.Rows)
	}
	if result.Rows[0]["title"] != "Alpha" || result.Rows[1]["title"] != "Gamma" {
		t.Errorf("rows = %v", result.Rows)
	}
	// 64-bit integers travel as decimal strings.
	if result.Rows[0]["id"] != "1" || result.Rows[0]["year"] != "2020" {
		t.Errorf("row normalization = %v", result.Rows[0])
	}
	if result.FilterOptions.PrimaryKey != "id" {
		t.Errorf("primary key = %q", result.FilterOptions.PrimaryKey)
	}
	if len(result.FilterOptions.EnumValues["title"]) != 2 {
		t.Errorf("enum values = %v", result.FilterOptions.EnumValues)
	}
	if len(result.AppliedFilters.Equals) != 1 {
		t.Errorf("applied filters = %+v", result.AppliedFilters)
	}
	if len(result.SearchableColumns) != 1 || result.SearchableColumns[0] != "title" {
		t.Errorf("searchable columns = %v", result.SearchableColumns)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryUnknownTable(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	mock.ExpectQuery(regexp.QuoteMeta(`PRAGMA table_info("ghosts")`)).
		WillReturnRows(sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"}))

	_, err := svc.Query(context.Background(), QueryRequest{Table: "ghosts"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryInvalidTableName(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	for _, name := range []string{"", "media; DROP TABLE media", `media"`, "1media", "med ia"} {
		_, err := svc.Query(context.Background(), QueryRequest{Table: name})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("Query(%q) err = %v, want ErrInvalidRequest", name, err)
		}
	}
	// Nothing may reach the database for a rejected identifier.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryStoreUnavailable(t *testing.T) {
	exec := dbexec.NewStandardExecutor(nil)
	intro := schema.NewIntrospector(exec, schema.SQLiteDialect{}, testLogger())
	svc := NewService(exec, intro, DefaultLimits(), testLogger(), nil)

	_, err := svc.Query(context.Background(), QueryRequest{Table: "media"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}

	_, err = svc.ListTables(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListTables err = %v, want ErrUnavailable", err)
	}
}

func TestQueryFacetFailureIsolated(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" LIMIT ? OFFSET ?`)).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "title" AS value`)).
		WillReturnError(errors.New("aggregation too slow"))

	result, err := svc.Query(context.Background(), QueryRequest{Table: "media"})
	if err != nil {
		t.Fatal(err)
	}
	values, ok := result.FilterOptions.EnumValues["title"]
	if !ok || len(values) != 0 {
		t.Errorf("enum values = %v, want empty slice for failed column", result.FilterOptions.EnumValues)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryHasMore(t *testing.T) {
	limits := DefaultLimits()
	svc, mock := newMediaService(t, limits)

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" LIMIT ? OFFSET ?`)).
		WithArgs(1, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}).
			AddRow(int64(1), "Alpha", int64(2020)))
	expectTitleFacet(mock)

	limit := 1
	result, err := svc.Query(context.Background(), QueryRequest{Table: "media", Limit: &limit})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Pagination.HasMore {
		t.Error("first page of two rows should report more")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryAnchorNarrowsOffset(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media" WHERE "id" <= ?`)).
		WithArgs(float64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" WHERE "id" <= ? ORDER BY "id" DESC LIMIT ? OFFSET ?`)).
		WithArgs(float64(2), 50, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}).
			AddRow(int64(2), "Beta", int64(2019)).
			AddRow(int64(1), "Alpha", int64(2020)))
	expectTitleFacet(mock)

	offset := 10
	req := QueryRequest{
		Table:           "media",
		Direction:       "desc",
		Offset:          &offset,
		PrimaryKeyValue: float64(2),
	}
	result, err := svc.Query(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Offset != 10 {
		t.Errorf("offset = %d, want preserved 10", result.Pagination.Offset)
	}
	if result.OrderBy != "id" || result.Direction != "desc" {
		t.Errorf("order = %s %s", result.OrderBy, result.Direction)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryAnchorReplacesOffset(t *testing.T) {
	limits := DefaultLimits()
	limits.AnchorReplacesOffset = true
	svc, mock := newMediaService(t, limits)

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media" WHERE "id" >= ?`)).
		WithArgs(float64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "title", "year" FROM "media" WHERE "id" >= ? ORDER BY "id" ASC LIMIT ? OFFSET ?`)).
		WithArgs(float64(2), 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "year"}))
	expectTitleFacet(mock)

	offset := 10
	req := QueryRequest{
		Table:           "media",
		Offset:          &offset,
		PrimaryKeyValue: float64(2),
	}
	result, err := svc.Query(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Offset != 0 {
		t.Errorf("offset = %d, want reset to 0", result.Pagination.Offset)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryNumericAnchorRejectsText(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	expectMediaColumns(mock)

	_, err := svc.Query(context.Background(), QueryRequest{
		Table:           "media",
		PrimaryKeyValue: "not-a-number",
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQuerySelectedColumns(t *testing.T) {
	svc, mock := newMediaService(t, DefaultLimits())

	expectMediaColumns(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "media"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "title", "id" FROM "media" LIMIT ? OFFSET ?`)).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"title", "id"}).AddRow("Alpha", int64(1)))
	expectTitleFacet(mock)

	req := QueryRequest{
		Table:   "media",
		Columns: []string{"title", "id", "title", "bogus"},
	}
	result, err := svc.Query(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"title", "id"}
	if len(result.SelectedColumns) != 2 || result.SelectedColumns[0] != want[0] || result.SelectedColumns[1] != want[1] {
		t.Errorf("selected columns = %v, want %v", result.SelectedColumns, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
