// Package coltype classifies declared SQL column types into the semantic
// categories the explorer uses to decide search, date-range, and facet
// eligibility. The same classification feeds both filter compilation and
// enum derivation so the two never disagree.
package coltype

import "strings"

// Class is a set of semantic tags derived from a column's declared type.
// Declared types are advisory (SQLite in particular accepts nearly any
// string), so tags are heuristic: an unrecognized or empty type carries
// no tags rather than being an error.
type Class uint8

const (
	// TextLike marks character, CLOB, text, and JSON types.
	TextLike Class = 1 << iota
	// DateLike marks types whose declaration mentions date or time.
	DateLike
	// NumericLike marks integer, real, numeric, float, and double types.
	NumericLike
)

// Has reports whether the class set contains every tag in flags.
func (c Class) Has(flags Class) bool {
	return c&flags == flags
}

var (
	textMarkers    = []string{"CHAR", "CLOB", "TEXT", "JSON", "ENUM", "SET"}
	dateMarkers    = []string{"DATE", "TIME"}
	numericMarkers = []string{"INT", "REAL", "NUMERIC", "FLOA", "DOUB", "DECIMAL", "SERIAL"}
)

// Classify derives the semantic tags for a declared type string. Matching
// is case-insensitive and substring-based because declared types carry
// size specifiers and vendor prefixes ("NVARCHAR(70)", "UNSIGNED BIG INT").
// Size specifiers are stripped before matching so "DECIMAL(10,2)" does not
// match on its precision digits.
func Classify(declaredType string) Class {
	normalized := strings.ToUpper(strings.TrimSpace(declaredType))
	if idx := strings.Index(normalized, "("); idx != -1 {
		normalized = normalized[:idx]
	}
	if normalized == "" {
		return 0
	}

	var class Class
	for _, marker := range textMarkers {
		if strings.Contains(normalized, marker) {
			class |= TextLike
			break
		}
	}
	for _, marker := range dateMarkers {
		if strings.Contains(normalized, marker) {
			class |= DateLike
			break
		}
	}
	for _, marker := range numericMarkers {
		if strings.Contains(normalized, marker) {
			class |= NumericLike
			break
		}
	}
	return class
}
