package explorer

import "plexport/internal/schema"

// QueryRequest is the JSON body of an explorer query. Every identifier in
// it is untrusted: table and column names are intersected against the
// live-introspected schema before they reach any SQL text, and values are
// always bound as parameters.
type QueryRequest struct {
	Table           string   `json:"table"`
	Limit           *int     `json:"limit,omitempty"`
	Offset          *int     `json:"offset,omitempty"`
	OrderBy         string   `json:"orderBy,omitempty"`
	Direction       string   `json:"direction,omitempty"`
	Columns         []string `json:"columns,omitempty"`
	Search          string   `json:"search,omitempty"`
	Filters         Filters  `json:"filters"`
	PrimaryKeyValue any      `json:"primaryKeyValue,omitempty"`
}

// Filters is the structured filter portion of a query request.
type Filters struct {
	Equals    []EqualsFilter   `json:"equals,omitempty"`
	Nulls     []NullFilter     `json:"nulls,omitempty"`
	DateRange *DateRangeFilter `json:"dateRange,omitempty"`
}

// EqualsFilter matches a column against a scalar value.
type EqualsFilter struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Null filter modes.
const (
	NullModeNull    = "null"
	NullModeNotNull = "notNull"
)

// NullFilter matches a column being NULL or NOT NULL.
type NullFilter struct {
	Column string `json:"column"`
	Mode   string `json:"mode"`
}

// DateRangeFilter bounds a date-like column. Either bound may be empty.
type DateRangeFilter struct {
	Column string `json:"column"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// AppliedFilters echoes the filters that survived allow-list intersection,
// so the admin UI can show which of its inputs actually took effect.
type AppliedFilters struct {
	Equals          []EqualsFilter   `json:"equals"`
	Nulls           []NullFilter     `json:"nulls"`
	DateRange       *DateRangeFilter `json:"dateRange"`
	Search          string           `json:"search,omitempty"`
	PrimaryKeyValue any              `json:"primaryKeyValue,omitempty"`
}

// Pagination describes the window of the filtered result set returned.
type Pagination struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

// EnumValue is one facet suggestion for a text-like column.
type EnumValue struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// FilterOptions carries the UI metadata derived from the introspected
// schema and bounded facet aggregation.
type FilterOptions struct {
	PrimaryKey      string                 `json:"primaryKey"`
	DateColumns     []string               `json:"dateColumns"`
	EnumValues      map[string][]EnumValue `json:"enumValues"`
	NullableColumns []string               `json:"nullableColumns"`
}

// QueryResult is the full response of a query request.
type QueryResult struct {
	Table             string              `json:"table"`
	Columns           []string            `json:"columns"`
	Schema            []schema.ColumnInfo `json:"schema"`
	Rows              []map[string]any    `json:"rows"`
	Pagination        Pagination          `json:"pagination"`
	Search            string              `json:"search"`
	OrderBy           string              `json:"orderBy"`
	Direction         string              `json:"direction"`
	SearchableColumns []string            `json:"searchableColumns"`
	FilterOptions     FilterOptions       `json:"filterOptions"`
	AppliedFilters    AppliedFilters      `json:"appliedFilters"`
	SelectedColumns   []string            `json:"selectedColumns"`
}

// TableList is the response of the table-listing endpoint.
type TableList struct {
	Tables []schema.TableSummary `json:"tables"`
}
