// Package sqlutil provides SQL identifier and pattern utilities.
package sqlutil

import (
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether name is syntactically safe to embed
// (quoted) in SQL text. This is a defense-in-depth check only: a valid
// name may still not exist, so callers must also confirm membership in a
// live-introspected allow-list before using it in a statement.
func IsValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// QuoteBacktick quotes a SQL identifier with backticks (MySQL style) and
// escapes any backticks within the identifier by doubling them.
func QuoteBacktick(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// QuoteDouble quotes a SQL identifier with double quotes (SQLite style)
// and escapes any double quotes within the identifier by doubling them.
func QuoteDouble(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// LikeEscapeChar is the escape character used with every LIKE predicate
// emitted by the query compiler, declared via an explicit ESCAPE clause.
const LikeEscapeChar = `\`

// EscapeLikePattern escapes LIKE metacharacters (%, _ and the escape
// character itself) in a user-supplied search term so the term matches
// literally instead of acting as a wildcard pattern.
func EscapeLikePattern(term string) string {
	var sb strings.Builder
	sb.Grow(len(term))
	for _, r := range term {
		switch r {
		case '\\', '%', '_':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
