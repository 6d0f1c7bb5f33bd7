package schema

import (
	"context"
	"fmt"
	"strings"

	"plexport/internal/dbexec"
)

// Dialect captures the store-specific parts of introspection and quoting.
// Everything else in the explorer is dialect-agnostic.
type Dialect interface {
	// Name returns the config/driver name of the dialect.
	Name() string
	// DriverName returns the database/sql driver to open for this dialect.
	DriverName() string
	// QuoteIdentifier quotes an already-validated identifier for embedding
	// in SQL text.
	QuoteIdentifier(name string) string
	// TableNames lists user tables, excluding internal/system tables.
	TableNames(ctx context.Context, exec dbexec.QueryExecutor) ([]string, error)
	// Columns returns column metadata for a table. The table name must
	// already have passed sqlutil.IsValidIdentifier. A missing table yields
	// an empty slice, not an error.
	Columns(ctx context.Context, exec dbexec.QueryExecutor, table string) ([]ColumnInfo, error)
}

// ForName resolves a dialect by its configured name.
func ForName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	case "mysql":
		return MySQLDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect: %q", name)
	}
}
