package schema

import (
	"context"
	"fmt"
	"log/slog"

	"plexport/internal/dbexec"
)

// Introspector reads live schema metadata through a query executor.
type Introspector struct {
	exec    dbexec.QueryExecutor
	dialect Dialect
	logger  *slog.Logger
}

// NewIntrospector creates an introspector bound to an executor and dialect.
func NewIntrospector(exec dbexec.QueryExecutor, dialect Dialect, logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{exec: exec, dialect: dialect, logger: logger}
}

// Dialect returns the dialect this introspector reads through.
func (in *Introspector) Dialect() Dialect {
	return in.dialect
}

// ListTables returns every user table with a best-effort row count. A count
// that fails leaves RowCount nil and is logged; the listing itself only
// fails when the table enumeration fails.
func (in *Introspector) ListTables(ctx context.Context) ([]TableSummary, error) {
	names, err := in.dialect.TableNames(ctx, in.exec)
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0, len(names))
	for _, name := range names {
		summary := TableSummary{Name: name}
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s", in.dialect.QuoteIdentifier(name))
		count, err := dbexec.QueryInt64(ctx, in.exec, countSQL)
		if err != nil {
			in.logger.Warn("table row count failed",
				slog.String("table", name),
				slog.String("error", err.Error()),
			)
		} else {
			summary.RowCount = &count
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Columns returns the column snapshot for a table. An empty result means
// the table does not exist; callers treat that as "not found" rather than
// a table with zero columns.
func (in *Introspector) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	return in.dialect.Columns(ctx, in.exec, table)
}
