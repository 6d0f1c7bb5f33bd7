package explorer

import (
	"encoding/base64"
	"strconv"

	"plexport/internal/coltype"
)

// normalizeRow converts driver-native values that are unsafe for JSON
// transport: 64-bit integers become decimal strings (JSON numbers lose
// precision past 2^53) and binary payloads become base64. Byte slices for
// text-like columns are plain driver quirk (the MySQL driver returns
// []byte for CHAR/TEXT) and decode to strings instead. Everything else
// passes through unchanged.
func normalizeRow(classes map[string]coltype.Class, row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for name, value := range row {
		out[name] = normalizeValue(classes[name], value)
	}
	return out
}

func normalizeValue(class coltype.Class, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case []byte:
		if class.Has(coltype.TextLike) || class.Has(coltype.DateLike) || class.Has(coltype.NumericLike) {
			return string(v)
		}
		return base64.StdEncoding.EncodeToString(v)
	default:
		return value
	}
}
