package explorer

import "plexport/internal/dbexec"

// scanRows materializes the selected columns of every row into maps keyed
// by column name. The caller knows the projection, so positional scanning
// into len(columns) values is exact.
func scanRows(rows dbexec.Rows, columns []string) ([]map[string]any, error) {
	results := []map[string]any{}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
