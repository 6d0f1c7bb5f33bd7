// Package schema discovers table and column metadata from the live store.
// Metadata is re-fetched on every request: the schema may change between
// requests and the explorer intentionally carries no caching layer, so a
// snapshot is only ever valid for the request that fetched it.
package schema

// TableSummary describes one user table in the store. RowCount is nil when
// counting failed for that table; a count failure never fails the listing.
type TableSummary struct {
	Name     string `json:"name"`
	RowCount *int64 `json:"rowCount"`
}

// ColumnInfo is an immutable per-request snapshot of one column.
type ColumnInfo struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declaredType"`
	NotNull      bool   `json:"notNull"`
	PrimaryKey   bool   `json:"primaryKey"`
	DefaultValue any    `json:"defaultValue"`
}

// PrimaryKeyColumn returns the first primary-key column, or nil when the
// table has none.
func PrimaryKeyColumn(columns []ColumnInfo) *ColumnInfo {
	for i := range columns {
		if columns[i].PrimaryKey {
			return &columns[i]
		}
	}
	return nil
}
