package explorer

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"plexport/internal/schema"
)

// Assembly is a ready-to-execute SELECT plus its mirrored COUNT. The count
// statement shares the WHERE clause but carries no LIMIT/OFFSET/ORDER BY,
// so the reported total reflects the filtered set rather than the page.
type Assembly struct {
	SQL         string
	Params      []any
	CountSQL    string
	CountParams []any
}

// assemble combines validated identifiers, compiled predicates, ordering,
// and the pagination window into final statements. Limit and offset are
// bound as parameters; identifiers have all passed allow-list checks and
// are quoted through the dialect.
func assemble(
	dialect schema.Dialect,
	table string,
	selected []string,
	cf CompiledFilter,
	orderBy string,
	descending bool,
	limit, offset int,
) (Assembly, error) {
	quotedTable := dialect.QuoteIdentifier(table)

	quotedCols := make([]string, len(selected))
	for i, col := range selected {
		quotedCols[i] = dialect.QuoteIdentifier(col)
	}

	builder := sq.Select(quotedCols...).From(quotedTable)
	countBuilder := sq.Select("COUNT(*)").From(quotedTable)
	if len(cf.Predicates) > 0 {
		where := sq.Expr(strings.Join(cf.Predicates, " AND "), cf.Params...)
		builder = builder.Where(where)
		countBuilder = countBuilder.Where(where)
	}
	if orderBy != "" {
		direction := "ASC"
		if descending {
			direction = "DESC"
		}
		builder = builder.OrderBy(dialect.QuoteIdentifier(orderBy) + " " + direction)
	}
	builder = builder.Suffix("LIMIT ? OFFSET ?", limit, offset)

	selectSQL, selectParams, err := builder.ToSql()
	if err != nil {
		return Assembly{}, fmt.Errorf("failed to assemble select: %w", err)
	}
	countSQL, countParams, err := countBuilder.ToSql()
	if err != nil {
		return Assembly{}, fmt.Errorf("failed to assemble count: %w", err)
	}

	return Assembly{
		SQL:         selectSQL,
		Params:      selectParams,
		CountSQL:    countSQL,
		CountParams: countParams,
	}, nil
}

// clampLimit resolves the page size: absent or non-positive requests fall
// back to the default window, and nothing may exceed the configured cap.
func clampLimit(requested *int, def, max int) int {
	if requested == nil || *requested <= 0 {
		if def > max {
			return max
		}
		return def
	}
	if *requested > max {
		return max
	}
	return *requested
}

// clampOffset resolves the page start; negative and absent offsets are zero.
func clampOffset(requested *int) int {
	if requested == nil || *requested < 0 {
		return 0
	}
	return *requested
}
