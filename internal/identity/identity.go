// Package identity derives the stable row keys used to deduplicate statement
// rows across repeated and overlapping imports.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/statements/internal/canonical"
)

// Namespace seeds every row key. Changing it re-keys the whole store.
var Namespace = uuid.MustParse("6f1c6a0e-3b53-5b5e-9a52-2f7f3c1d8e40")

// separator cannot appear in statement text, so ("ab","c") and ("a","bc")
// never collide.
const separator = "\x1f"

var numeric = regexp.MustCompile(`^[+-]?[\d,]*\.?\d+$`)

// Key returns the identity of a row given its cells in the adapter's declared
// column order.
func Key(fields ...string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Normalize(f)
	}
	return uuid.NewSHA1(Namespace, []byte(strings.Join(parts, separator))).String()
}

// Normalize makes equivalent renderings of a cell agree: blanks and the
// various null spellings collapse to "", numbers are rounded to the persisted
// precision and printed without trailing zeros.
func Normalize(field string) string {
	s := strings.TrimSpace(field)
	switch s {
	case "None", "none", "nan", "NaN", "NULL", "null":
		return ""
	}
	if numeric.MatchString(s) {
		if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "")); err == nil {
			return canonical.Round(d).String()
		}
	}
	return s
}
