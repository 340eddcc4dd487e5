// Package header canonicalizes spreadsheet column labels so that labels
// typed by hand can be compared against the rubric.
package header

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Strictness selects how accented characters compare.
type Strictness int

const (
	// Strict compares canonical labels byte for byte: "LIDERANCA" and
	// "LIDERANÇA" are different labels.
	Strict Strictness = iota
	// AccentInsensitive strips combining marks before comparing.
	AccentInsensitive
)

// ParseStrictness maps a config value to a Strictness. Unknown values are strict.
func ParseStrictness(s string) Strictness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold", "insensitive", "accent_insensitive":
		return AccentInsensitive
	default:
		return Strict
	}
}

// String implements fmt.Stringer.
func (s Strictness) String() string {
	if s == AccentInsensitive {
		return "fold"
	}
	return "strict"
}

// Canonical trims label, collapses internal whitespace to single spaces and
// uppercases it. Anything that is not a string yields "".
func Canonical(label any) string {
	s, ok := label.(string)
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Fold removes diacritics: "LIDERANÇA" becomes "LIDERANCA".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Key returns the comparison key of label under the given strictness.
func Key(label any, st Strictness) string {
	c := Canonical(label)
	if st == AccentInsensitive {
		return Fold(c)
	}
	return c
}
