package schema

import (
	"context"
	"database/sql"
	"fmt"

	"plexport/internal/dbexec"
	"plexport/internal/sqlutil"
)

// MySQLDialect introspects a MySQL store via INFORMATION_SCHEMA, scoped to
// the currently selected database.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) DriverName() string { return "mysql" }

func (MySQLDialect) QuoteIdentifier(name string) string {
	return sqlutil.QuoteBacktick(name)
}

func (MySQLDialect) TableNames(ctx context.Context, exec dbexec.QueryExecutor) ([]string, error) {
	rows, err := exec.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`)
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

func (MySQLDialect) Columns(ctx context.Context, exec dbexec.QueryExecutor, table string) ([]ColumnInfo, error) {
	if !sqlutil.IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_KEY, COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			name         string
			columnType   string
			isNullable   string
			columnKey    string
			defaultValue sql.NullString
		)
		if err := rows.Scan(&name, &columnType, &isNullable, &columnKey, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan column for %s: %w", table, err)
		}
		col := ColumnInfo{
			Name:         name,
			DeclaredType: columnType,
			NotNull:      isNullable == "NO",
			PrimaryKey:   columnKey == "PRI",
		}
		if defaultValue.Valid {
			col.DefaultValue = defaultValue.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
