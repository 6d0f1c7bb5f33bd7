package explorer

import (
	"context"
	"fmt"
)

// deriveEnumValues runs the bounded facet aggregation for one text-like
// column: the most frequent short values, capped in both value length and
// sample size. Values over the length cap are excluded entirely rather
// than truncated so free-text columns cannot dominate facet output.
func (s *Service) deriveEnumValues(ctx context.Context, table, column string) ([]EnumValue, error) {
	quotedTable := s.dialect.QuoteIdentifier(table)
	quotedCol := s.dialect.QuoteIdentifier(column)

	query := fmt.Sprintf(
		"SELECT %s AS value, COUNT(*) AS count FROM %s WHERE %s IS NOT NULL AND LENGTH(%s) <= ? GROUP BY %s ORDER BY count DESC LIMIT %d",
		quotedCol, quotedTable, quotedCol, quotedCol, quotedCol, s.limits.EnumSampleSize,
	)

	rows, err := s.exec.QueryContext(ctx, query, s.limits.EnumValueMaxLength)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []EnumValue
	for rows.Next() {
		var (
			raw   any
			count int64
		)
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, err
		}
		values = append(values, EnumValue{Value: stringValue(raw), Count: count})
	}
	return values, rows.Err()
}

func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}
