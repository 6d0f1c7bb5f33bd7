package coltype

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		declaredType string
		want         Class
	}{
		{"text", "TEXT", TextLike},
		{"lowercase text", "text", TextLike},
		{"varchar with size", "VARCHAR(255)", TextLike},
		{"nvarchar", "NVARCHAR(70)", TextLike},
		{"clob", "CLOB", TextLike},
		{"json", "JSON", TextLike},
		{"char", "CHARACTER(20)", TextLike},
		{"integer", "INTEGER", NumericLike},
		{"int", "int", NumericLike},
		{"unsigned big int", "UNSIGNED BIG INT", NumericLike},
		{"tinyint", "TINYINT(1)", NumericLike},
		{"real", "REAL", NumericLike},
		{"double", "DOUBLE PRECISION", NumericLike},
		{"float", "FLOAT", NumericLike},
		{"decimal strips precision", "DECIMAL(10,2)", NumericLike},
		{"numeric", "NUMERIC", NumericLike},
		{"date", "DATE", DateLike},
		{"datetime", "DATETIME", DateLike},
		{"timestamp", "TIMESTAMP", DateLike},
		{"time", "TIME", DateLike},
		{"blob untagged", "BLOB", 0},
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"boolean untagged", "BOOLEAN", 0},
		{"unknown", "GEOMETRY", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.declaredType); got != tt.want {
				t.Errorf("Classify(%q) = %b, want %b", tt.declaredType, got, tt.want)
			}
		})
	}
}

func TestHas(t *testing.T) {
	class := Classify("VARCHAR(100)")
	if !class.Has(TextLike) {
		t.Error("VARCHAR should be TextLike")
	}
	if class.Has(DateLike) {
		t.Error("VARCHAR should not be DateLike")
	}
	if class.Has(NumericLike) {
		t.Error("VARCHAR should not be NumericLike")
	}
}
