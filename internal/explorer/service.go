// Package explorer implements the admin database explorer: ad hoc,
// read-only queries over any table in the store, compiled from untrusted
// HTTP input. Table and column names are only ever embedded in SQL after
// confirmation against a live-introspected allow-list; values are always
// bound as parameters.
package explorer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"plexport/internal/coltype"
	"plexport/internal/dbexec"
	"plexport/internal/observability"
	"plexport/internal/schema"
	"plexport/internal/sqlutil"
)

// Limits bounds explorer queries and facet derivation.
type Limits struct {
	// DefaultLimit is the page size used when the request carries none.
	DefaultLimit int
	// MaxLimit caps the page size regardless of the request.
	MaxLimit int
	// EnumSampleSize caps how many facet values one column may yield.
	EnumSampleSize int
	// EnumValueMaxLength excludes values longer than this from facets.
	EnumValueMaxLength int
	// EnumColumnLimit caps how many text-like columns get facet queries
	// per request.
	EnumColumnLimit int
	// AnchorReplacesOffset switches the primary-key anchor from narrowing
	// the offset window (the historical behavior) to keyset pagination
	// that resets the offset to zero.
	AnchorReplacesOffset bool
}

// DefaultLimits returns the stock explorer limits.
func DefaultLimits() Limits {
	return Limits{
		DefaultLimit:       50,
		MaxLimit:           200,
		EnumSampleSize:     20,
		EnumValueMaxLength: 64,
		EnumColumnLimit:    4,
	}
}

// Service orchestrates one explorer request end to end: validate, introspect,
// compile, assemble, execute, normalize. It holds no per-request state and
// caches nothing between requests.
type Service struct {
	exec    dbexec.QueryExecutor
	intro   *schema.Introspector
	dialect schema.Dialect
	limits  Limits
	logger  *slog.Logger
	metrics *observability.ExplorerMetrics
}

// NewService creates an explorer service. metrics may be nil.
func NewService(
	exec dbexec.QueryExecutor,
	intro *schema.Introspector,
	limits Limits,
	logger *slog.Logger,
	metrics *observability.ExplorerMetrics,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		exec:    exec,
		intro:   intro,
		dialect: intro.Dialect(),
		limits:  limits,
		logger:  logger,
		metrics: metrics,
	}
}

// ListTables returns every user table with best-effort row counts.
func (s *Service) ListTables(ctx context.Context) (*TableList, error) {
	tables, err := s.intro.ListTables(ctx)
	if err != nil {
		return nil, s.wrapStoreError(err, "table listing failed")
	}
	if tables == nil {
		tables = []schema.TableSummary{}
	}
	return &TableList{Tables: tables}, nil
}

// Query executes one explorer query request.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	start := time.Now()

	table := strings.TrimSpace(req.Table)
	if !sqlutil.IsValidIdentifier(table) {
		return nil, fmt.Errorf("%w: invalid table name", ErrInvalidRequest)
	}

	columns, err := s.intro.Columns(ctx, table)
	if err != nil {
		return nil, s.wrapStoreError(err, "schema introspection failed")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
	}

	colByName := make(map[string]schema.ColumnInfo, len(columns))
	classes := make(map[string]coltype.Class, len(columns))
	for _, col := range columns {
		colByName[col.Name] = col
		classes[col.Name] = coltype.Classify(col.DeclaredType)
	}

	selected := selectColumns(columns, colByName, req.Columns)
	searchable := searchableColumns(columns, classes, selected)

	descending := strings.EqualFold(strings.TrimSpace(req.Direction), "desc")
	direction := "asc"
	if descending {
		direction = "desc"
	}

	pk := schema.PrimaryKeyColumn(columns)
	var anchor any
	var anchorColumn string
	if pk != nil && req.PrimaryKeyValue != nil {
		anchor, err = coerceAnchorValue(*pk, classes[pk.Name], req.PrimaryKeyValue)
		if err != nil {
			return nil, err
		}
		anchorColumn = pk.Name
	}

	conditions, applied := buildConditions(colByName, classes, req, searchable, anchor, anchorColumn, descending)
	compiled := compile(s.dialect, conditions)

	orderBy := strings.TrimSpace(req.OrderBy)
	if orderBy != "" {
		if _, ok := colByName[orderBy]; !ok {
			orderBy = ""
		}
	}
	// An anchor without explicit ordering sorts by the primary key so the
	// anchor actually narrows the iteration.
	if orderBy == "" && anchorColumn != "" {
		orderBy = anchorColumn
	}

	limit := clampLimit(req.Limit, s.limits.DefaultLimit, s.limits.MaxLimit)
	offset := clampOffset(req.Offset)
	if anchorColumn != "" && s.limits.AnchorReplacesOffset {
		offset = 0
	}

	asm, err := assemble(s.dialect, table, selected, compiled, orderBy, descending, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := dbexec.QueryInt64(ctx, s.exec, asm.CountSQL, asm.CountParams...)
	if err != nil {
		return nil, s.wrapStoreError(err, fmt.Sprintf("count query failed for table %s", table))
	}

	rows, err := s.exec.QueryContext(ctx, asm.SQL, asm.Params...)
	if err != nil {
		return nil, s.wrapStoreError(err, fmt.Sprintf("select query failed for table %s", table))
	}
	raw, err := scanRows(rows, selected)
	closeErr := rows.Close()
	if err != nil {
		return nil, s.wrapStoreError(err, fmt.Sprintf("row scan failed for table %s", table))
	}
	if closeErr != nil {
		return nil, s.wrapStoreError(closeErr, fmt.Sprintf("row cleanup failed for table %s", table))
	}

	normalized := make([]map[string]any, len(raw))
	for i, row := range raw {
		normalized[i] = normalizeRow(classes, row)
	}

	result := &QueryResult{
		Table:   table,
		Columns: selected,
		Schema:  columns,
		Rows:    normalized,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: int64(offset)+int64(len(normalized)) < total,
		},
		Search:            applied.Search,
		OrderBy:           orderBy,
		Direction:         direction,
		SearchableColumns: searchable,
		FilterOptions:     s.filterOptions(ctx, table, columns, classes, pk),
		AppliedFilters:    applied,
		SelectedColumns:   selected,
	}

	if s.metrics != nil {
		s.metrics.RecordQuery(ctx, table, time.Since(start), len(normalized))
	}
	return result, nil
}

// filterOptions derives the UI filter metadata: primary key, date and
// nullable columns from the snapshot, and facet values from bounded
// aggregation over the first few text-like columns. A facet query failure
// is isolated to its column and never fails the request.
func (s *Service) filterOptions(
	ctx context.Context,
	table string,
	columns []schema.ColumnInfo,
	classes map[string]coltype.Class,
	pk *schema.ColumnInfo,
) FilterOptions {
	options := FilterOptions{
		DateColumns:     []string{},
		EnumValues:      map[string][]EnumValue{},
		NullableColumns: []string{},
	}
	if pk != nil {
		options.PrimaryKey = pk.Name
	}

	for _, col := range columns {
		if classes[col.Name].Has(coltype.DateLike) {
			options.DateColumns = append(options.DateColumns, col.Name)
		}
		if !col.NotNull {
			options.NullableColumns = append(options.NullableColumns, col.Name)
		}
	}

	derived := 0
	for _, col := range columns {
		if derived >= s.limits.EnumColumnLimit {
			break
		}
		if !classes[col.Name].Has(coltype.TextLike) {
			continue
		}
		values, err := s.deriveEnumValues(ctx, table, col.Name)
		if err != nil {
			s.logger.Warn("enum derivation failed",
				slog.String("table", table),
				slog.String("column", col.Name),
				slog.String("error", err.Error()),
			)
			if s.metrics != nil {
				s.metrics.RecordFacetFailure(ctx, table)
			}
			values = nil
		}
		if values == nil {
			values = []EnumValue{}
		}
		options.EnumValues[col.Name] = values
		derived++
	}
	return options
}

// selectColumns intersects the requested projection with the introspected
// columns, preserving request order and dropping duplicates and unknowns.
// An empty intersection falls back to all columns in table order.
func selectColumns(columns []schema.ColumnInfo, colByName map[string]schema.ColumnInfo, requested []string) []string {
	selected := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		if _, ok := colByName[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		selected = append(selected, name)
	}
	if len(selected) > 0 {
		return selected
	}
	selected = make([]string, len(columns))
	for i, col := range columns {
		selected[i] = col.Name
	}
	return selected
}

// searchableColumns restricts search to the selected text-like columns,
// falling back to every text-like column when the selection contains none.
func searchableColumns(columns []schema.ColumnInfo, classes map[string]coltype.Class, selected []string) []string {
	searchable := []string{}
	for _, name := range selected {
		if classes[name].Has(coltype.TextLike) {
			searchable = append(searchable, name)
		}
	}
	if len(searchable) > 0 {
		return searchable
	}
	for _, col := range columns {
		if classes[col.Name].Has(coltype.TextLike) {
			searchable = append(searchable, col.Name)
		}
	}
	return searchable
}

// coerceAnchorValue validates the primary-key anchor against the key's
// column class. Numeric keys reject non-numeric anchors outright; this is
// the one filter input that errors instead of being dropped, because a
// mistyped anchor silently matching nothing would be indistinguishable
// from an empty table.
func coerceAnchorValue(pk schema.ColumnInfo, class coltype.Class, raw any) (any, error) {
	if class.Has(coltype.NumericLike) {
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return v, nil
		case int64:
			return v, nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: primary key %s expects a numeric value", ErrInvalidRequest, pk.Name)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("%w: primary key %s expects a numeric value", ErrInvalidRequest, pk.Name)
		}
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return v, nil
	case bool:
		return nil, fmt.Errorf("%w: unsupported primary key value", ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: unsupported primary key value", ErrInvalidRequest)
	}
}

// wrapStoreError classifies a driver error: a missing connection maps to
// the unavailable taxonomy entry, everything else stays an execution
// failure with context for the server-side log.
func (s *Service) wrapStoreError(err error, msg string) error {
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
