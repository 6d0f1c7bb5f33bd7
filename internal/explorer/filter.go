package explorer

import (
	"strings"

	"plexport/internal/coltype"
	"plexport/internal/schema"
	"plexport/internal/sqlutil"
)

// conditionKind enumerates the closed set of filter variants the compiler
// understands. Adding a kind requires extending the compile switch, which
// keeps the compiler exhaustive instead of silently ignoring new filters.
type conditionKind int

const (
	condEquals conditionKind = iota
	condIsNull
	condIsNotNull
	condDateRange
	condSearch
	condAnchor
)

// condition is one normalized filter. Every column it references has
// already been confirmed against the introspected allow-list.
type condition struct {
	kind       conditionKind
	column     string
	value      any
	from       string
	to         string
	term       string
	columns    []string
	descending bool
}

// CompiledFilter is the output of filter compilation: SQL predicate
// fragments to be ANDed together plus their bound values, in matching
// order. Values never appear in the fragments themselves.
type CompiledFilter struct {
	Predicates []string
	Params     []any
}

// buildConditions intersects the raw request filters against the
// introspected columns and returns the surviving conditions along with
// the applied-filter echo. Entries referencing unknown columns or carrying
// non-scalar values are dropped, never rejected: the admin UI degrades
// gracefully rather than failing the whole query.
func buildConditions(
	columns map[string]schema.ColumnInfo,
	classes map[string]coltype.Class,
	req QueryRequest,
	searchable []string,
	anchor any,
	anchorColumn string,
	descending bool,
) ([]condition, AppliedFilters) {
	conditions := []condition{}
	applied := AppliedFilters{
		Equals: []EqualsFilter{},
		Nulls:  []NullFilter{},
	}

	for _, eq := range req.Filters.Equals {
		if _, ok := columns[eq.Column]; !ok {
			continue
		}
		value, ok := scalarValue(eq.Value)
		if !ok {
			continue
		}
		conditions = append(conditions, condition{kind: condEquals, column: eq.Column, value: value})
		applied.Equals = append(applied.Equals, eq)
	}

	for _, nf := range req.Filters.Nulls {
		if _, ok := columns[nf.Column]; !ok {
			continue
		}
		switch nf.Mode {
		case NullModeNull:
			conditions = append(conditions, condition{kind: condIsNull, column: nf.Column})
		case NullModeNotNull:
			conditions = append(conditions, condition{kind: condIsNotNull, column: nf.Column})
		default:
			continue
		}
		applied.Nulls = append(applied.Nulls, nf)
	}

	if dr := req.Filters.DateRange; dr != nil {
		if classes[dr.Column].Has(coltype.DateLike) && (dr.From != "" || dr.To != "") {
			conditions = append(conditions, condition{
				kind:   condDateRange,
				column: dr.Column,
				from:   dr.From,
				to:     dr.To,
			})
			applied.DateRange = dr
		}
	}

	if term := strings.TrimSpace(req.Search); term != "" && len(searchable) > 0 {
		conditions = append(conditions, condition{kind: condSearch, term: term, columns: searchable})
		applied.Search = term
	}

	if anchor != nil && anchorColumn != "" {
		conditions = append(conditions, condition{
			kind:       condAnchor,
			column:     anchorColumn,
			value:      anchor,
			descending: descending,
		})
		applied.PrimaryKeyValue = anchor
	}

	return conditions, applied
}

// compile turns normalized conditions into parameterized predicate
// fragments. Identifiers are quoted through the dialect; every value is
// emitted as a bound parameter.
func compile(dialect schema.Dialect, conditions []condition) CompiledFilter {
	cf := CompiledFilter{}
	for _, cond := range conditions {
		switch cond.kind {
		case condEquals:
			cf.Predicates = append(cf.Predicates, dialect.QuoteIdentifier(cond.column)+" = ?")
			cf.Params = append(cf.Params, cond.value)
		case condIsNull:
			cf.Predicates = append(cf.Predicates, dialect.QuoteIdentifier(cond.column)+" IS NULL")
		case condIsNotNull:
			cf.Predicates = append(cf.Predicates, dialect.QuoteIdentifier(cond.column)+" IS NOT NULL")
		case condDateRange:
			quoted := dialect.QuoteIdentifier(cond.column)
			if cond.from != "" {
				cf.Predicates = append(cf.Predicates, quoted+" >= ?")
				cf.Params = append(cf.Params, cond.from)
			}
			if cond.to != "" {
				cf.Predicates = append(cf.Predicates, quoted+" <= ?")
				cf.Params = append(cf.Params, cond.to)
			}
		case condSearch:
			pattern := "%" + sqlutil.EscapeLikePattern(cond.term) + "%"
			parts := make([]string, len(cond.columns))
			for i, col := range cond.columns {
				parts[i] = dialect.QuoteIdentifier(col) + ` LIKE ? ESCAPE '\'`
				cf.Params = append(cf.Params, pattern)
			}
			cf.Predicates = append(cf.Predicates, "("+strings.Join(parts, " OR ")+")")
		case condAnchor:
			op := " >= ?"
			if cond.descending {
				op = " <= ?"
			}
			cf.Predicates = append(cf.Predicates, dialect.QuoteIdentifier(cond.column)+op)
			cf.Params = append(cf.Params, cond.value)
		}
	}
	return cf
}

// scalarValue accepts the JSON scalar types a bound parameter can carry.
// Booleans are coerced to 0/1 so they compare against integer-backed
// boolean columns. Anything else (objects, arrays, nil) is rejected.
func scalarValue(v any) (any, bool) {
	switch value := v.(type) {
	case string:
		return value, true
	case float64:
		return value, true
	case int:
		return value, true
	case int64:
		return value, true
	case bool:
		if value {
			return 1, true
		}
		return 0, true
	default:
		return nil, false
	}
}

