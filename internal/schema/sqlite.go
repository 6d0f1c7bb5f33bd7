package schema

import (
	"context"
	"database/sql"
	"fmt"

	"plexport/internal/dbexec"
	"plexport/internal/sqlutil"
)

// SQLiteDialect introspects a SQLite store via sqlite_master and
// PRAGMA table_info.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) DriverName() string { return "sqlite3" }

func (SQLiteDialect) QuoteIdentifier(name string) string {
	return sqlutil.QuoteDouble(name)
}

func (SQLiteDialect) TableNames(ctx context.Context, exec dbexec.QueryExecutor) ([]string, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (d SQLiteDialect) Columns(ctx context.Context, exec dbexec.QueryExecutor, table string) ([]ColumnInfo, error) {
	// PRAGMA arguments cannot be bound as parameters; the table name is
	// validated and quoted before interpolation. A nonexistent table yields
	// zero rows, which callers treat as "not found".
	if !sqlutil.IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	rows, err := exec.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid          int
			name         string
			declaredType sql.NullString
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column for %s: %w", table, err)
		}
		col := ColumnInfo{
			Name:         name,
			DeclaredType: declaredType.String,
			NotNull:      notNull != 0,
			PrimaryKey:   pk != 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = defaultValue.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
